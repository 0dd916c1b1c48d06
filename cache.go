package racepub

import (
	"context"
	"sync"
	"time"
)

// IndexCache is an in-memory cache of the race index with TTL.
type IndexCache struct {
	mu      sync.RWMutex
	entries []IndexEntry
	fetched time.Time
	ttl     time.Duration
	load    func(context.Context) ([]IndexEntry, error)
}

// NewIndexCache creates an IndexCache that refills itself with load.
func NewIndexCache(load func(context.Context) ([]IndexEntry, error), ttl time.Duration) *IndexCache {
	return &IndexCache{load: load, ttl: ttl}
}

func (c *IndexCache) valid() bool {
	return c.entries != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *IndexCache) Invalidate() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}

// Entries returns the cached index, loading it when stale.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *IndexCache) Entries(ctx context.Context) ([]IndexEntry, error) {
	c.mu.RLock()
	if c.valid() {
		entries := c.entries
		c.mu.RUnlock()
		return entries, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.entries, nil
	}
	entries, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []IndexEntry{}
	}
	c.entries = entries
	c.fetched = time.Now()
	return entries, nil
}
