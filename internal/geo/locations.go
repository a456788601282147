package geo

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"sales-platform/internal/models"
)

// Locations is the static district → sub-district → grid cell mapping.
// Loaded once at process start; immutable afterwards.
type Locations struct {
	byGu map[string]map[string]models.GridCell
}

// LoadLocations reads the bundled gu/dong grid mapping. A missing or
// malformed file is a startup error; the process must not serve without it.
func LoadLocations(path string) (*Locations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locations file %s: %w", path, err)
	}

	var byGu map[string]map[string]models.GridCell
	if err := json.Unmarshal(data, &byGu); err != nil {
		return nil, fmt.Errorf("failed to parse locations file %s: %w", path, err)
	}

	if len(byGu) == 0 {
		return nil, fmt.Errorf("locations file %s contains no districts", path)
	}

	return &Locations{byGu: byGu}, nil
}

// Gus returns all district names in sorted order
func (l *Locations) Gus() []string {
	gus := make([]string, 0, len(l.byGu))
	for gu := range l.byGu {
		gus = append(gus, gu)
	}
	sort.Strings(gus)
	return gus
}

// Dongs returns the sub-district names of a district in sorted order
func (l *Locations) Dongs(gu string) ([]string, bool) {
	dongs, ok := l.byGu[gu]
	if !ok {
		return nil, false
	}

	names := make([]string, 0, len(dongs))
	for dong := range dongs {
		names = append(names, dong)
	}
	sort.Strings(names)
	return names, true
}

// Grid looks up the weather grid cell for a (gu, dong) pair
func (l *Locations) Grid(gu, dong string) (models.GridCell, bool) {
	dongs, ok := l.byGu[gu]
	if !ok {
		return models.GridCell{}, false
	}
	cell, ok := dongs[dong]
	return cell, ok
}

// All returns the full mapping for serialization to clients
func (l *Locations) All() map[string]map[string]models.GridCell {
	return l.byGu
}
