package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sales-platform/pkg/logging"
)

// Source types a cache entry can be keyed under. Historical weather does
// not change, so entries are never expired or evicted.
const (
	SourceUltra        = "ultra"
	SourceVillage      = "village"
	SourceStationDaily = "asos"
)

// CacheEntry is one cached observation plus the time it was fetched
type CacheEntry struct {
	Temp     float64   `json:"temp"`
	Rain     float64   `json:"rain"`
	CachedAt time.Time `json:"cached_at"`
}

// Cache is a date/grid/source keyed store of fetched weather observations,
// written through to a JSON file so it survives process restarts. Writes to
// the same key are idempotent facts; last writer wins.
type Cache struct {
	mu      sync.Mutex
	entries map[string]CacheEntry
	path    string
	logger  *logging.StructuredLogger
}

// NewCache loads the cache from its backing file. A missing, corrupt, or
// unreadable file is never fatal: it just means starting empty, since every
// entry can be refetched.
func NewCache(path string, logger *logging.StructuredLogger) *Cache {
	c := &Cache{
		entries: make(map[string]CacheEntry),
		path:    path,
		logger:  logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn(context.Background(), "[CACHE_LOAD_ERROR] Unreadable cache file, starting empty", logging.Fields{
				"path":  path,
				"error": err.Error(),
			})
		}
		return c
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		logger.Warn(context.Background(), "[CACHE_LOAD_ERROR] Corrupt cache file, starting empty", logging.Fields{
			"path":  path,
			"error": err.Error(),
		})
		c.entries = make(map[string]CacheEntry)
		return c
	}

	logger.Info(context.Background(), "[CACHE_LOADED] Weather cache loaded", logging.Fields{
		"path":    path,
		"entries": len(c.entries),
	})
	return c
}

func cacheKey(ymd8 string, nx, ny int, source string) string {
	return fmt.Sprintf("%s_%d_%d_%s", ymd8, nx, ny, source)
}

// Get returns the cached observation for a key, if any
func (c *Cache) Get(ymd8 string, nx, ny int, source string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[cacheKey(ymd8, nx, ny, source)]
	return entry, ok
}

// Put stores an observation and synchronously persists the whole cache.
// A crash before the write completes loses only this entry, which is
// acceptable: it can be refetched.
func (c *Cache) Put(ymd8 string, nx, ny int, source string, temp, rain float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(ymd8, nx, ny, source)] = CacheEntry{
		Temp:     temp,
		Rain:     rain,
		CachedAt: time.Now(),
	}

	c.persist()
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// persist writes the cache to its backing file. Caller holds the lock.
// A failed write is logged and swallowed; the in-memory cache stays valid.
func (c *Cache) persist() {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		c.logger.Error(context.Background(), "[CACHE_PERSIST_ERROR] Failed to marshal cache", logging.Fields{
			"path": c.path,
		}, err)
		return
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.logger.Error(context.Background(), "[CACHE_PERSIST_ERROR] Failed to create cache directory", logging.Fields{
				"path": c.path,
			}, err)
			return
		}
	}

	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		c.logger.Error(context.Background(), "[CACHE_PERSIST_ERROR] Failed to write cache file", logging.Fields{
			"path": c.path,
		}, err)
	}
}
