package weather

import (
	"os"
	"path/filepath"
	"testing"

	"sales-platform/pkg/logging"
)

func testLogger() *logging.StructuredLogger {
	return logging.NewStructuredLogger("test", "test", logging.FatalLevel)
}

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	cache := NewCache(path, testLogger())

	if _, ok := cache.Get("20240115", 60, 121, SourceUltra); ok {
		t.Error("Get() on a never-written key returned an entry")
	}

	cache.Put("20240115", 60, 121, SourceUltra, 3.5, 0.0)

	entry, ok := cache.Get("20240115", 60, 121, SourceUltra)
	if !ok {
		t.Fatal("Get() after Put() returned no entry")
	}
	if entry.Temp != 3.5 || entry.Rain != 0.0 {
		t.Errorf("Get() = (%v, %v), want (3.5, 0.0)", entry.Temp, entry.Rain)
	}
	if entry.CachedAt.IsZero() {
		t.Error("CachedAt not set on Put()")
	}
}

func TestCacheKeysAreDistinct(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "cache.json"), testLogger())

	cache.Put("20240115", 60, 121, SourceUltra, 3.5, 0.0)
	cache.Put("20240115", 60, 121, SourceVillage, 7.2, 1.5)
	cache.Put("20240116", 60, 121, SourceUltra, -1.0, 0.0)
	cache.Put("20240115", 119, 119, SourceStationDaily, 4.8, 2.0)

	if cache.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", cache.Len())
	}

	entry, ok := cache.Get("20240115", 60, 121, SourceVillage)
	if !ok || entry.Temp != 7.2 {
		t.Errorf("village entry = (%v, %v), want temp 7.2", entry.Temp, ok)
	}
}

func TestCachePersistsAcrossReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")

	first := NewCache(path, testLogger())
	first.Put("20240115", 60, 121, SourceVillage, 12.5, 3.0)

	second := NewCache(path, testLogger())
	if second.Len() != 1 {
		t.Fatalf("reloaded cache Len() = %d, want 1", second.Len())
	}

	entry, ok := second.Get("20240115", 60, 121, SourceVillage)
	if !ok {
		t.Fatal("entry not found after reload")
	}
	if entry.Temp != 12.5 || entry.Rain != 3.0 {
		t.Errorf("reloaded entry = (%v, %v), want (12.5, 3.0)", entry.Temp, entry.Rain)
	}
}

func TestCacheCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cache := NewCache(path, testLogger())
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for corrupt file", cache.Len())
	}

	// A corrupt file must not poison later writes.
	cache.Put("20240115", 60, 121, SourceUltra, 5.0, 0.0)
	if _, ok := cache.Get("20240115", 60, 121, SourceUltra); !ok {
		t.Error("Put() after corrupt load did not store the entry")
	}
}

func TestCacheMissingFileStartsEmpty(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "absent.json"), testLogger())
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for missing file", cache.Len())
	}
}
