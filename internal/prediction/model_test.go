package prediction

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeModelFile(t *testing.T, dir string, hour int, content string) {
	t.Helper()

	path := filepath.Join(dir, fmt.Sprintf("hour_%02d_amt_cnt.json", hour))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write model fixture: %v", err)
	}
}

func modelJSON(hour int) string {
	return fmt.Sprintf(`{
		"hour": %d,
		"features": ["DONG", "DAY", "TEMP", "RAIN"],
		"amount": {
			"intercept": 100000,
			"dong": {"행궁동": 50000, "매교동": -20000},
			"day": {"5": 10000, "6": 20000},
			"temp": 1000,
			"rain": -5000
		},
		"count": {
			"intercept": 20,
			"dong": {"행궁동": 5},
			"day": {"6": 3},
			"temp": 0.5,
			"rain": -1
		}
	}`, hour)
}

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()
	writeModelFile(t, dir, 3, modelJSON(3))

	m, err := LoadModel(filepath.Join(dir, "hour_03_amt_cnt.json"))
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}

	if m.Hour != 3 {
		t.Errorf("Hour = %d, want 3", m.Hour)
	}
	if !m.Supports([]string{"DONG", "DAY", "TEMP", "RAIN"}) {
		t.Error("Supports() = false for the declared schema")
	}
}

func TestLoadModelErrors(t *testing.T) {
	dir := t.TempDir()
	writeModelFile(t, dir, 1, `{"hour": 1, "features": []}`)
	writeModelFile(t, dir, 2, `{not json`)

	tests := []struct {
		name string
		file string
	}{
		{"empty feature schema", "hour_01_amt_cnt.json"},
		{"malformed json", "hour_02_amt_cnt.json"},
		{"missing file", "hour_99_amt_cnt.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadModel(filepath.Join(dir, tt.file)); err == nil {
				t.Error("LoadModel() expected an error, got nil")
			}
		})
	}
}

func TestLoadModels(t *testing.T) {
	dir := t.TempDir()
	for hour := 1; hour <= 10; hour++ {
		writeModelFile(t, dir, hour, modelJSON(hour))
	}

	loaded, err := LoadModels(dir)
	if err != nil {
		t.Fatalf("LoadModels() error = %v", err)
	}
	if len(loaded) != 10 {
		t.Errorf("loaded %d models, want 10", len(loaded))
	}
}

func TestLoadModelsMissingSlotIsError(t *testing.T) {
	dir := t.TempDir()
	for hour := 1; hour <= 10; hour++ {
		if hour == 7 {
			continue
		}
		writeModelFile(t, dir, hour, modelJSON(hour))
	}

	if _, err := LoadModels(dir); err == nil {
		t.Error("LoadModels() expected an error for a missing hour slot")
	}
}

func TestLoadModelsHourMismatchIsError(t *testing.T) {
	dir := t.TempDir()
	for hour := 1; hour <= 10; hour++ {
		writeModelFile(t, dir, hour, modelJSON(hour))
	}
	// Slot 4's file claims to be the hour 9 model.
	writeModelFile(t, dir, 4, modelJSON(9))

	if _, err := LoadModels(dir); err == nil {
		t.Error("LoadModels() expected an error for an hour mismatch")
	}
}

func TestSupports(t *testing.T) {
	dir := t.TempDir()
	writeModelFile(t, dir, 1, modelJSON(1))
	m, err := LoadModel(filepath.Join(dir, "hour_01_amt_cnt.json"))
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}

	tests := []struct {
		name     string
		features []string
		want     bool
	}{
		{"exact schema", []string{"DONG", "DAY", "TEMP", "RAIN"}, true},
		{"order independent", []string{"RAIN", "TEMP", "DAY", "DONG"}, true},
		{"missing feature", []string{"DONG", "DAY", "TEMP"}, false},
		{"extra feature", []string{"GU", "DONG", "DAY", "TEMP", "RAIN"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Supports(tt.features); got != tt.want {
				t.Errorf("Supports(%v) = %v, want %v", tt.features, got, tt.want)
			}
		})
	}
}

func TestPredict(t *testing.T) {
	dir := t.TempDir()
	writeModelFile(t, dir, 1, modelJSON(1))
	m, err := LoadModel(filepath.Join(dir, "hour_01_amt_cnt.json"))
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}

	tests := []struct {
		name    string
		f       Features
		wantAmt float64
		wantCnt float64
	}{
		{
			name:    "known dong and day",
			f:       Features{Dong: "행궁동", Day: 6, Temp: 10, Rain: 0},
			wantAmt: 100000 + 50000 + 20000 + 10*1000,
			wantCnt: 20 + 5 + 3 + 10*0.5,
		},
		{
			name:    "unseen dong contributes zero",
			f:       Features{Dong: "없는동", Day: 6, Temp: 0, Rain: 0},
			wantAmt: 100000 + 20000,
			wantCnt: 20 + 3,
		},
		{
			name:    "rain reduces the estimate",
			f:       Features{Dong: "매교동", Day: 1, Temp: 0, Rain: 2},
			wantAmt: 100000 - 20000 - 2*5000,
			wantCnt: 20 - 2*1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amt, cnt := m.Predict(tt.f)
			if amt != tt.wantAmt {
				t.Errorf("amount = %v, want %v", amt, tt.wantAmt)
			}
			if cnt != tt.wantCnt {
				t.Errorf("count = %v, want %v", cnt, tt.wantCnt)
			}
		})
	}
}
