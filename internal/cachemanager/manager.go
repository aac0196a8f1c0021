// Package cachemanager provides typed TTL caches.
package cachemanager

import (
	"context"
	"time"
)

const (
	DefaultExpiration      = 5 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// CacheManager is a typed key/value cache with per-entry TTLs.
type CacheManager[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	Flush(ctx context.Context)
}
