package models

import (
	"testing"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  string
	}{
		{"zero", 0, "0원"},
		{"three digits", 999, "999원"},
		{"four digits", 1000, "1,000원"},
		{"seven digits", 1234567, "1,234,567원"},
		{"exact thousands", 120000, "120,000원"},
		{"negative", -4500, "-4,500원"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAmount(tt.value); got != tt.want {
				t.Errorf("FormatAmount(%d) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  string
	}{
		{"zero", 0, "0건"},
		{"two digits", 42, "42건"},
		{"five digits", 12345, "12,345건"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCount(tt.value); got != tt.want {
				t.Errorf("FormatCount(%d) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDayOfWeek(t *testing.T) {
	tests := []struct {
		name    string
		ymd     string
		want    int
		wantErr bool
	}{
		{"monday", "20240101", 1, false},
		{"friday", "20240105", 5, false},
		{"saturday", "20240106", 6, false},
		{"sunday maps to seven", "20240107", 7, false},
		{"dashes rejected", "2024-01-01", 0, true},
		{"empty", "", 0, true},
		{"garbage", "abcdefgh", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DayOfWeek(tt.ymd)

			if (err != nil) != tt.wantErr {
				t.Errorf("DayOfWeek(%q) error = %v, wantErr %v", tt.ymd, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("DayOfWeek(%q) = %v, want %v", tt.ymd, got, tt.want)
			}
		})
	}
}

func TestTimeLabels(t *testing.T) {
	if len(TimeLabels) != HourSlots {
		t.Fatalf("TimeLabels has %d entries, want %d", len(TimeLabels), HourSlots)
	}

	for hour := 1; hour <= HourSlots; hour++ {
		if _, ok := TimeLabels[hour]; !ok {
			t.Errorf("TimeLabels missing hour slot %d", hour)
		}
	}

	if TimeLabels[1] != "00:00 ~ 06:59" {
		t.Errorf("TimeLabels[1] = %v, want %v", TimeLabels[1], "00:00 ~ 06:59")
	}
	if TimeLabels[10] != "23:00 ~ 23:59" {
		t.Errorf("TimeLabels[10] = %v, want %v", TimeLabels[10], "23:00 ~ 23:59")
	}
}
