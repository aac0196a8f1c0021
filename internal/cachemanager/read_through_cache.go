package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache fills a CacheManager from a loader on misses. Loader
// errors are returned and never cached.
type ReadThroughCache[V any] struct {
	cache CacheManager[V]
	load  func(ctx context.Context, key string) (V, error)
	ttl   time.Duration
}

// NewReadThroughCache wraps cache with load. A non-positive ttl disables
// caching and every Get calls load.
func NewReadThroughCache[V any](cache CacheManager[V], load func(ctx context.Context, key string) (V, error), ttl time.Duration) *ReadThroughCache[V] {
	return &ReadThroughCache[V]{cache: cache, load: load, ttl: ttl}
}

// Get returns the cached value for key, loading it on a miss.
func (r *ReadThroughCache[V]) Get(ctx context.Context, key string) (V, error) {
	if r.ttl <= 0 {
		return r.load(ctx, key)
	}
	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}
	value, err := r.load(ctx, key)
	if err != nil {
		return value, err
	}
	r.cache.Set(ctx, key, value, r.ttl)
	return value, nil
}

// Invalidate evicts key so the next Get reloads it.
func (r *ReadThroughCache[V]) Invalidate(ctx context.Context, key string) {
	r.cache.Delete(ctx, key)
}
