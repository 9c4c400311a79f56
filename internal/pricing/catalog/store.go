package catalog

import (
	"context"
	"sync"

	"gp3sift/internal/logging"
)

// Source loads the price list of a region
type Source interface {
	Fetch(ctx context.Context, region string) (*PriceCatalog, error)
}

// Store hands out one catalog per region for the lifetime of a run.
// Concurrent callers for the same region wait for a single download.
type Store struct {
	source Source
	cache  *Cache

	mu      sync.Mutex
	regions map[string]*regionEntry
}

type regionEntry struct {
	once    sync.Once
	catalog *PriceCatalog
	err     error
}

// NewStore creates a store backed by source. cache may be nil.
func NewStore(source Source, cache *Cache) *Store {
	return &Store{
		source:  source,
		cache:   cache,
		regions: make(map[string]*regionEntry),
	}
}

// Load returns the catalog of a region, consulting the disk cache before the source
func (s *Store) Load(ctx context.Context, region string) (*PriceCatalog, error) {
	s.mu.Lock()
	entry, ok := s.regions[region]
	if !ok {
		entry = &regionEntry{}
		s.regions[region] = entry
	}
	s.mu.Unlock()

	entry.once.Do(func() {
		entry.catalog, entry.err = s.load(ctx, region)
	})

	// A failed load is retried by the next caller
	if entry.err != nil {
		s.mu.Lock()
		if s.regions[region] == entry {
			delete(s.regions, region)
		}
		s.mu.Unlock()
	}

	return entry.catalog, entry.err
}

func (s *Store) load(ctx context.Context, region string) (*PriceCatalog, error) {
	if s.cache != nil {
		if cat, ok := s.cache.Get(region); ok {
			logging.Debug("Using cached price list", map[string]interface{}{
				"region": region,
				"rows":   cat.Len(),
			})
			return cat, nil
		}
	}

	cat, err := s.source.Fetch(ctx, region)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(cat)
		if err := s.cache.Save(); err != nil {
			logging.Error("Failed to save price list cache", err, map[string]interface{}{
				"region": region,
			})
		}
	}

	return cat, nil
}
