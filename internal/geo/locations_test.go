package geo

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLocationsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "locations.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadLocations(t *testing.T) {
	path := writeLocationsFile(t, `{
		"팔달구": {
			"행궁동": {"nx": 60, "ny": 121},
			"매교동": {"nx": 60, "ny": 120}
		},
		"영통구": {
			"영통동": {"nx": 62, "ny": 120}
		}
	}`)

	locations, err := LoadLocations(path)
	if err != nil {
		t.Fatalf("LoadLocations() error = %v", err)
	}

	gus := locations.Gus()
	if len(gus) != 2 {
		t.Fatalf("Gus() returned %d districts, want 2", len(gus))
	}

	dongs, ok := locations.Dongs("팔달구")
	if !ok {
		t.Fatal("Dongs(팔달구) not found")
	}
	if len(dongs) != 2 {
		t.Errorf("Dongs(팔달구) returned %d entries, want 2", len(dongs))
	}

	cell, ok := locations.Grid("팔달구", "행궁동")
	if !ok {
		t.Fatal("Grid(팔달구, 행궁동) not found")
	}
	if cell.Nx != 60 || cell.Ny != 121 {
		t.Errorf("Grid(팔달구, 행궁동) = (%d, %d), want (60, 121)", cell.Nx, cell.Ny)
	}

	if _, ok := locations.Grid("팔달구", "없는동"); ok {
		t.Error("Grid() found an entry for an unknown dong")
	}
	if _, ok := locations.Dongs("없는구"); ok {
		t.Error("Dongs() found entries for an unknown gu")
	}
}

func TestLoadLocationsErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
	}{
		{
			name: "missing file",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "absent.json")
			},
		},
		{
			name: "malformed json",
			setup: func(t *testing.T) string {
				return writeLocationsFile(t, `{"팔달구": [1,2,3]}`)
			},
		},
		{
			name: "empty mapping",
			setup: func(t *testing.T) string {
				return writeLocationsFile(t, `{}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadLocations(tt.setup(t)); err == nil {
				t.Error("LoadLocations() expected an error, got nil")
			}
		})
	}
}
