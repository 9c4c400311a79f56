package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gp3sift/internal/logging"
)

type cacheEntry struct {
	FetchedAt time.Time     `json:"fetched_at"`
	Catalog   *PriceCatalog `json:"catalog"`
}

// Cache persists parsed regional catalogs so the bulk price list is not
// downloaded on every run
type Cache struct {
	cacheFile string
	ttl       time.Duration
	entries   map[string]cacheEntry
	cacheLock sync.RWMutex
	saveLock  sync.Mutex
	now       func() time.Time
}

// NewCache creates a catalog cache backed by cacheFile. Entries older than
// ttl are treated as missing; a ttl of zero disables expiry.
func NewCache(cacheFile string, ttl time.Duration) (*Cache, error) {
	if cacheFile == "" {
		cacheFile = filepath.Join("cache", "rds_catalogs.json")
	}

	if err := os.MkdirAll(filepath.Dir(cacheFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		cacheFile: cacheFile,
		ttl:       ttl,
		entries:   make(map[string]cacheEntry),
		now:       time.Now,
	}

	if err := c.Load(); err != nil {
		logging.Error("Failed to load catalog cache", err, map[string]interface{}{
			"cache_file": cacheFile,
		})
	}

	return c, nil
}

// Get returns the cached catalog for a region if present and fresh
func (c *Cache) Get(region string) (*PriceCatalog, bool) {
	c.cacheLock.RLock()
	defer c.cacheLock.RUnlock()

	entry, ok := c.entries[region]
	if !ok || entry.Catalog == nil {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.FetchedAt) > c.ttl {
		return nil, false
	}
	return entry.Catalog, true
}

// Set stores a catalog for its region
func (c *Cache) Set(cat *PriceCatalog) {
	c.cacheLock.Lock()
	c.entries[cat.Region] = cacheEntry{FetchedAt: c.now(), Catalog: cat}
	c.cacheLock.Unlock()
}

// Load reads the cache from disk
func (c *Cache) Load() error {
	data, err := os.ReadFile(c.cacheFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	var entries map[string]cacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse cache data: %w", err)
	}
	if entries == nil {
		entries = make(map[string]cacheEntry)
	}

	c.cacheLock.Lock()
	c.entries = entries
	c.cacheLock.Unlock()

	return nil
}

// Save writes the cache to disk
func (c *Cache) Save() error {
	c.saveLock.Lock()
	defer c.saveLock.Unlock()

	c.cacheLock.RLock()
	data, err := json.Marshal(c.entries)
	count := len(c.entries)
	c.cacheLock.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	tempFile := c.cacheFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}

	if err := os.Rename(tempFile, c.cacheFile); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp cache file: %w", err)
	}

	logging.Debug("Catalog cache saved", map[string]interface{}{
		"cache_file": c.cacheFile,
		"regions":    count,
	})

	return nil
}
