package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kjstillabower/city-guide-service/internal/observability"
)

// Cache defines the interface for access layer caches.
// Get returns cached data if present and not expired, Set stores data with TTL.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
}

// DefaultMaxEntries bounds an InMemoryCache created with maxEntries <= 0.
const DefaultMaxEntries = 1000

// InMemoryCache implements Cache using a mutex-guarded map with TTL-based expiration.
// Every Get and Set sweeps all expired entries. When full, the oldest entry is evicted.
type InMemoryCache[T any] struct {
	name       string
	maxEntries int
	now        func() time.Time

	mu   sync.Mutex
	data map[string]cacheEntry[T]
}

// cacheEntry stores a cached value with its store and expiration timestamps.
type cacheEntry[T any] struct {
	value     T
	storedAt  time.Time
	expiresAt time.Time
}

// NewInMemoryCache creates an in-memory cache. name labels its metrics.
func NewInMemoryCache[T any](name string, maxEntries int) *InMemoryCache[T] {
	return NewInMemoryCacheWithClock[T](name, maxEntries, time.Now)
}

// NewInMemoryCacheWithClock is NewInMemoryCache with an injected clock for tests.
func NewInMemoryCacheWithClock[T any](name string, maxEntries int, now func() time.Time) *InMemoryCache[T] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &InMemoryCache[T]{
		name:       name,
		maxEntries: maxEntries,
		now:        now,
		data:       make(map[string]cacheEntry[T]),
	}
}

// Get returns (value, true, nil) on a live hit and (zero, false, nil) on miss or expiry.
func (c *InMemoryCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked(c.now())
	entry, ok := c.data[key]
	if !ok {
		var zero T
		return zero, false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key for ttl. A full cache evicts its oldest entry first.
func (c *InMemoryCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)
	if _, exists := c.data[key]; !exists && len(c.data) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.data[key] = cacheEntry[T]{
		value:     value,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
	return nil
}

// Len reports the number of stored entries, expired ones included until the next sweep.
func (c *InMemoryCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

func (c *InMemoryCache[T]) sweepLocked(now time.Time) {
	for k, e := range c.data {
		if !now.Before(e.expiresAt) {
			delete(c.data, k)
			observability.CacheEvictionsTotal.WithLabelValues(c.name, "expired").Inc()
		}
	}
}

func (c *InMemoryCache[T]) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.data {
		if first || e.storedAt.Before(oldest) {
			oldestKey, oldest, first = k, e.storedAt, false
		}
	}
	if !first {
		delete(c.data, oldestKey)
		observability.CacheEvictionsTotal.WithLabelValues(c.name, "capacity").Inc()
	}
}
