package cachemanager

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
)

// InMemoryCacheManager is a CacheManager backed by go-cache.
type InMemoryCacheManager[V any] struct {
	useCase string
	cache   *gocache.Cache
}

// NewInMemoryCacheManager returns an empty cache. useCase names the cache
// in log lines.
func NewInMemoryCacheManager[V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemoryCacheManager[V] {
	return &InMemoryCacheManager[V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Get returns the value stored under key.
func (c *InMemoryCacheManager[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	value, found := c.cache.Get(key)
	if !found {
		return zero, false
	}
	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type stored in cache", "cache", c.useCase, "key", key)
		return zero, false
	}
	log.Debug(log.CatCache, "cache hit", "cache", c.useCase, "key", key)
	return v, true
}

// Set stores value under key for ttl. A zero ttl uses the cache default.
func (c *InMemoryCacheManager[V]) Set(_ context.Context, key string, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, ttl)
}

// Delete evicts keys.
func (c *InMemoryCacheManager[V]) Delete(_ context.Context, keys ...string) {
	for _, key := range keys {
		c.cache.Delete(key)
	}
}

// Flush evicts everything.
func (c *InMemoryCacheManager[V]) Flush(_ context.Context) {
	c.cache.Flush()
}

// Len returns the number of stored entries, expired ones included until
// the janitor runs.
func (c *InMemoryCacheManager[V]) Len() int {
	return c.cache.ItemCount()
}
