package cache

import (
	"context"
	"time"
)

// Store is a typed view of one namespace with a fixed TTL.
type Store[T any] struct {
	cache     *Cache
	namespace string
	ttl       time.Duration
}

// NewStore returns a Store for namespace. ttl <= 0 disables expiry.
func NewStore[T any](c *Cache, namespace string, ttl time.Duration) *Store[T] {
	return &Store[T]{
		cache:     c,
		namespace: namespace,
		ttl:       ttl,
	}
}

// Get returns the cached value if present and fresh. Stale entries read as
// absent but stay in the backend.
func (s *Store[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T

	entry, ok := Get[T](ctx, s.cache, s.namespace, key)
	if !ok {
		return zero, false
	}
	if !entry.Fresh(s.cache.Now(), s.ttl) {
		s.cache.logger.Debug("stale cache entry",
			"namespace", s.namespace,
			"key", key,
			"stored_at", entry.StoredAt(),
		)
		return zero, false
	}

	s.cache.logger.Debug("cache hit", "namespace", s.namespace, "key", key)
	return entry.Data, true
}

// Set stores value under key.
func (s *Store[T]) Set(ctx context.Context, key string, value T) error {
	return Set(ctx, s.cache, s.namespace, key, value)
}
