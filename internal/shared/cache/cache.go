// Package cache provides a small byte-oriented key/value cache with TTLs,
// backed by Redis in deployed environments and by process memory in dev.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values under string keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// New returns a Redis cache when url is set, otherwise an in-memory cache.
func New(ctx context.Context, url string) (Cache, error) {
	if url == "" {
		return NewMemory(), nil
	}
	return NewRedis(ctx, url)
}
