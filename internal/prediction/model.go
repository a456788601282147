package prediction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"sales-platform/internal/models"
)

// Feature names a model schema can be composed of
const (
	FeatureGu   = "GU"
	FeatureDong = "DONG"
	FeatureDay  = "DAY"
	FeatureTemp = "TEMP"
	FeatureRain = "RAIN"
)

// Model is one trained per-hour regression artifact, exported by the
// offline training pipeline as JSON. It is a black box from the engine's
// point of view: a feature schema plus two regression heads.
type Model struct {
	Hour     int      `json:"hour"`
	Features []string `json:"features"`
	Amount   Head     `json:"amount"`
	Count    Head     `json:"count"`

	featureSet map[string]bool
}

// Head is one output of the regression: an intercept, one-hot coefficient
// maps for the categorical features, and weights for the numeric ones.
// Categorical levels unseen during training contribute zero.
type Head struct {
	Intercept float64            `json:"intercept"`
	Gu        map[string]float64 `json:"gu,omitempty"`
	Dong      map[string]float64 `json:"dong,omitempty"`
	Day       map[string]float64 `json:"day,omitempty"`
	Temp      float64            `json:"temp,omitempty"`
	Rain      float64            `json:"rain,omitempty"`
}

// Features is one fully assembled input vector
type Features struct {
	Gu   string
	Dong string
	Day  int
	Temp float64
	Rain float64
}

// LoadModel reads and validates a single model artifact
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", path, err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, err)
	}

	if len(m.Features) == 0 {
		return nil, fmt.Errorf("model file %s declares no feature schema", path)
	}

	m.featureSet = make(map[string]bool, len(m.Features))
	for _, f := range m.Features {
		m.featureSet[f] = true
	}

	return &m, nil
}

// LoadModels loads the artifact for every hour slot from a directory.
// Any missing slot is an error; the caller treats that as fatal at startup.
func LoadModels(dir string) (map[int]*Model, error) {
	loaded := make(map[int]*Model, models.HourSlots)

	for hour := 1; hour <= models.HourSlots; hour++ {
		path := filepath.Join(dir, fmt.Sprintf("hour_%02d_amt_cnt.json", hour))
		m, err := LoadModel(path)
		if err != nil {
			return nil, fmt.Errorf("hour slot %d: %w", hour, err)
		}
		if m.Hour != 0 && m.Hour != hour {
			return nil, fmt.Errorf("hour slot %d: model file %s declares hour %d", hour, path, m.Hour)
		}
		loaded[hour] = m
	}

	return loaded, nil
}

// Supports reports whether the given feature names are exactly the schema
// this model was fitted on. Structural validation up front replaces
// try-and-catch schema probing.
func (m *Model) Supports(features []string) bool {
	if len(features) != len(m.featureSet) {
		return false
	}
	for _, f := range features {
		if !m.featureSet[f] {
			return false
		}
	}
	return true
}

// Predict evaluates both regression heads for an input vector, using only
// the features in the model's schema.
func (m *Model) Predict(f Features) (float64, float64) {
	return m.evalHead(&m.Amount, f), m.evalHead(&m.Count, f)
}

func (m *Model) evalHead(h *Head, f Features) float64 {
	v := h.Intercept

	if m.featureSet[FeatureGu] {
		v += h.Gu[f.Gu]
	}
	if m.featureSet[FeatureDong] {
		v += h.Dong[f.Dong]
	}
	if m.featureSet[FeatureDay] {
		v += h.Day[strconv.Itoa(f.Day)]
	}
	if m.featureSet[FeatureTemp] {
		v += h.Temp * f.Temp
	}
	if m.featureSet[FeatureRain] {
		v += h.Rain * f.Rain
	}

	return v
}

// SchemaString renders the model's schema for diagnostics
func (m *Model) SchemaString() string {
	names := make([]string, len(m.Features))
	copy(names, m.Features)
	sort.Strings(names)

	out := ""
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}
