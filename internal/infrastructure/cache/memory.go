package cache

import (
	"context"
	"sync"
	"time"

	"github.com/watchlens/backend/internal/domain"
)

// DefaultCleanupInterval is how often the janitor evicts expired entries
const DefaultCleanupInterval = 10 * time.Minute

// Clock provides times.
type Clock interface {
	// Now returns current UTC time.
	Now() time.Time
}

// Option is custom configuration of MemoryCache.
type Option func(c *MemoryCache)

// cacheItem represents a single item in the cache with expiration
type cacheItem struct {
	Value      interface{}
	Expiration time.Time
}

// MemoryCache is a thread-safe in-memory cache with TTL support.
// Values are stored as given; callers must treat them as read-only.
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
	clock Clock
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(ops ...Option) *MemoryCache {
	cache := &MemoryCache{
		data:  make(map[string]cacheItem),
		clock: systemClock{},
	}

	for _, op := range ops {
		op(cache)
	}

	return cache
}

// WithClock sets MemoryCache's custom Clock.
func WithClock(c Clock) Option {
	return func(m *MemoryCache) {
		m.clock = c
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(_ context.Context, key string) (interface{}, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || c.expired(item) {
		return nil, domain.ErrCacheMiss
	}

	return item.Value, nil
}

// Set stores a value in the cache with TTL
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		Value:      value,
		Expiration: c.clock.Now().Add(ttl),
	}

	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	return exists && !c.expired(item), nil
}

// StartJanitor evicts expired entries every interval until ctx is done.
func (c *MemoryCache) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.DeleteExpired()
			}
		}
	}()
}

// DeleteExpired removes every expired entry and returns how many were removed
func (c *MemoryCache) DeleteExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for key, item := range c.data {
		if c.expired(item) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}

func (c *MemoryCache) expired(item cacheItem) bool {
	return !c.clock.Now().Before(item.Expiration)
}
