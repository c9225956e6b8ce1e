package report

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"mailmetrics/internal/domain"
)

// LoadFunc produces a fresh ResultSet on cache miss.
type LoadFunc func(ctx context.Context) (*domain.ResultSet, error)

type cacheEntry struct {
	value     *domain.ResultSet
	expiresAt time.Time
}

// Cache memoizes materialized result sets keyed by query signature, with
// a time-bounded validity window. Failures are never cached, and
// concurrent cold-cache callers for the same signature share one
// in-flight remote computation.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// NewCache creates a Cache. now is injectable so tests can simulate
// expiry deterministically; nil means the wall clock.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached value for key while it is fresh; otherwise it
// runs load, stores the outcome with expiresAt = now + ttl, and returns
// it. At most one fresh computation runs per key per TTL window.
func (c *Cache) Get(ctx context.Context, key string, load LoadFunc) (*domain.ResultSet, error) {
	if rs, ok := c.lookup(key); ok {
		return rs, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A concurrent caller may have repopulated the entry while this
		// one waited on the flight group.
		if rs, ok := c.lookup(key); ok {
			return rs, nil
		}

		rs, err := load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = cacheEntry{value: rs, expiresAt: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return rs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ResultSet), nil
}

// Invalidate drops the given entries, or every entry when called with no
// keys. The next Get always triggers a fresh remote cycle.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(keys) == 0 {
		c.entries = make(map[string]cacheEntry)
		return
	}
	for _, key := range keys {
		delete(c.entries, key)
	}
}

func (c *Cache) lookup(key string) (*domain.ResultSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}
