package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"sales-platform/internal/models"
	"sales-platform/pkg/metrics"
)

func TestParsePrecipitation(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"no rain sentinel", "강수없음", 0.0, true},
		{"plain millimeters", "3.5mm", 3.5, true},
		{"unit with space", "12.0 mm", 12.0, true},
		{"less-than qualifier", "1mm 미만", 0.0, true},
		{"bare number", "7", 7.0, true},
		{"empty string dropped", "", 0, false},
		{"unparseable dropped", "폭우", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parsePrecipitation(tt.input)

			if ok != tt.wantOK {
				t.Errorf("parsePrecipitation(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
				return
			}
			if ok && got != tt.want {
				t.Errorf("parsePrecipitation(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		vals     []float64
		fallback float64
		want     float64
	}{
		{"empty uses fallback", nil, 15.0, 15.0},
		{"single value", []float64{4.0}, 15.0, 4.0},
		{"several values", []float64{1.0, 2.0, 3.0}, 0.0, 2.0},
		{"negative values", []float64{-4.0, -2.0}, 0.0, -3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mean(tt.vals, tt.fallback); got != tt.want {
				t.Errorf("mean(%v, %v) = %v, want %v", tt.vals, tt.fallback, got, tt.want)
			}
		})
	}
}

// namespace must be unique per test since the collector registers into the
// default prometheus registry.
func newTestKMAClient(t *testing.T, serverURL, namespace string) *KMAClient {
	t.Helper()

	cache := NewCache(filepath.Join(t.TempDir(), "cache.json"), testLogger())
	return NewKMAClient(KMAConfig{
		ServiceKey: "test-key",
		BaseURL:    serverURL,
		StationURL: serverURL + "/station",
		StationID:  119,
		Timeout:    5 * time.Second,
	}, cache, testLogger(), metrics.NewCollector(namespace))
}

func TestUltraNowcast(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"body":{"items":{"item":[
			{"category":"T1H","obsrValue":"3.2"},
			{"category":"RN1","obsrValue":"0.5"},
			{"category":"REH","obsrValue":"60"}
		]}}}}`))
	}))
	defer server.Close()

	client := newTestKMAClient(t, server.URL, "kma_test_nowcast")
	now := time.Date(2024, 1, 15, 14, 30, 0, 0, time.Local)
	cell := models.GridCell{Nx: 60, Ny: 121}

	temp, rain, err := client.UltraNowcast(context.Background(), cell, now)
	if err != nil {
		t.Fatalf("UltraNowcast() error = %v", err)
	}
	if temp != 3.2 || rain != 0.5 {
		t.Errorf("UltraNowcast() = (%v, %v), want (3.2, 0.5)", temp, rain)
	}

	// Second call for the same day and cell is served from cache.
	if _, _, err := client.UltraNowcast(context.Background(), cell, now); err != nil {
		t.Fatalf("cached UltraNowcast() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("API called %d times, want 1", calls)
	}
}

func TestVillageForecastDayAverage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"body":{"items":{"item":[
			{"category":"TMP","fcstDate":"20240116","fcstValue":"10.0"},
			{"category":"TMP","fcstDate":"20240116","fcstValue":"14.0"},
			{"category":"TMP","fcstDate":"20240117","fcstValue":"99.0"},
			{"category":"PCP","fcstDate":"20240116","fcstValue":"강수없음"},
			{"category":"PCP","fcstDate":"20240116","fcstValue":"2.0mm"},
			{"category":"PCP","fcstDate":"20240116","fcstValue":"쏟아짐"}
		]}}}}`))
	}))
	defer server.Close()

	client := newTestKMAClient(t, server.URL, "kma_test_village")
	cell := models.GridCell{Nx: 60, Ny: 121}

	temp, rain, err := client.VillageForecastDayAverage(context.Background(), cell, "20240116")
	if err != nil {
		t.Fatalf("VillageForecastDayAverage() error = %v", err)
	}

	// Only 20240116 entries count; the unparseable PCP value is dropped
	// from the averaging set, not treated as zero.
	if temp != 12.0 {
		t.Errorf("temp = %v, want 12.0", temp)
	}
	if rain != 1.0 {
		t.Errorf("rain = %v, want 1.0", rain)
	}
}

func TestStationDailyObservation(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.URL.Query().Get("stnIds"); got != "119" {
			t.Errorf("stnIds = %q, want %q", got, "119")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"body":{"items":{"item":[
			{"avgTa":"8.4","sumRn":"12.5"}
		]}}}}`))
	}))
	defer server.Close()

	client := newTestKMAClient(t, server.URL, "kma_test_station")

	temp, rain, err := client.StationDailyObservation(context.Background(), "20240110")
	if err != nil {
		t.Fatalf("StationDailyObservation() error = %v", err)
	}
	if temp != 8.4 || rain != 12.5 {
		t.Errorf("StationDailyObservation() = (%v, %v), want (8.4, 12.5)", temp, rain)
	}

	// Repeat lookups for the same date hit the station cache entry.
	if _, _, err := client.StationDailyObservation(context.Background(), "20240110"); err != nil {
		t.Fatalf("cached StationDailyObservation() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("API called %d times, want 1", calls)
	}
}

func TestStationDailyObservationEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"body":{"items":{"item":[]}}}}`))
	}))
	defer server.Close()

	client := newTestKMAClient(t, server.URL, "kma_test_station_empty")

	if _, _, err := client.StationDailyObservation(context.Background(), "20240110"); err == nil {
		t.Error("StationDailyObservation() error = nil, want error for empty item set")
	}
}

func TestGetJSONRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestKMAClient(t, server.URL, "kma_test_ratelimit")
	cell := models.GridCell{Nx: 60, Ny: 121}

	_, _, err := client.UltraNowcast(context.Background(), cell, time.Now())
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("UltraNowcast() error = %v, want ErrRateLimited", err)
	}
}

func TestGetJSONMissingServiceKey(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "cache.json"), testLogger())
	client := NewKMAClient(KMAConfig{
		ServiceKey: "",
		BaseURL:    "http://localhost:1",
		Timeout:    time.Second,
	}, cache, testLogger(), metrics.NewCollector("kma_test_nokey"))

	_, _, err := client.UltraNowcast(context.Background(), models.GridCell{Nx: 60, Ny: 121}, time.Now())
	if !errors.Is(err, ErrMissingServiceKey) {
		t.Errorf("UltraNowcast() error = %v, want ErrMissingServiceKey", err)
	}
}
