package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultPrefix marks every key owned by followerscan in a shared backend.
const DefaultPrefix = "followerscan_"

// Namespaces used by followerscan.
const (
	// NamespaceProfile holds ProfileRecords keyed by athlete id.
	NamespaceProfile = "profile"

	// NamespaceFollowerIDs holds identifier sets keyed by the target athlete id.
	NamespaceFollowerIDs = "cachedFollowerIds"

	// NamespaceViewer holds the signed-in athlete id.
	NamespaceViewer = "myAthleteId"
)

// ErrStorageWrite is wrapped by every failed cache write.
var ErrStorageWrite = errors.New("cache write failed")

// Backend is the key/value string store the cache is layered on.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Cache encodes entries into a Backend under a common key prefix.
type Cache struct {
	backend Backend
	prefix  string
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets the time source used to stamp and age entries.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger sets a custom logger for the cache.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a Cache over backend.
func New(backend Backend, opts ...Option) *Cache {
	c := &Cache{
		backend: backend,
		prefix:  DefaultPrefix,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Key composes the backend key for a namespace and key.
func (c *Cache) Key(namespace, key string) string {
	return c.prefix + namespace + "_" + key
}

// Now returns the cache's current time.
func (c *Cache) Now() time.Time {
	return c.now()
}

// Entry is a cached value and the instant it was stored.
type Entry[T any] struct {
	Data            T     `json:"data"`
	StoredAtEpochMs int64 `json:"timestamp"`
}

// StoredAt returns the storage instant.
func (e Entry[T]) StoredAt() time.Time {
	return time.UnixMilli(e.StoredAtEpochMs)
}

// Fresh reports whether the entry is still valid at now. A ttl of zero or
// less means the entry never goes stale.
func (e Entry[T]) Fresh(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return true
	}
	return now.UnixMilli()-e.StoredAtEpochMs <= ttl.Milliseconds()
}

// envelope is the on-disk shape; Timestamp is a pointer so a missing field
// can be told apart from zero.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp *int64          `json:"timestamp"`
}

// Get reads an entry regardless of its age. It reports absent when the key
// is missing, the stored value is corrupt, or the timestamp is missing.
func Get[T any](ctx context.Context, c *Cache, namespace, key string) (Entry[T], bool) {
	var zero Entry[T]
	fullKey := c.Key(namespace, key)

	raw, ok, err := c.backend.Get(ctx, fullKey)
	if err != nil {
		c.logger.Warn("cache read failed", "key", fullKey, "error", err)
		return zero, false
	}
	if !ok || raw == "" {
		return zero, false
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		c.logger.Warn("failed to parse cache entry", "key", fullKey, "error", err)
		return zero, false
	}
	if env.Timestamp == nil {
		c.logger.Debug("cache entry has no timestamp", "key", fullKey)
		return zero, false
	}

	var data T
	if err := json.Unmarshal(env.Data, &data); err != nil {
		c.logger.Warn("failed to decode cache entry data", "key", fullKey, "error", err)
		return zero, false
	}

	return Entry[T]{Data: data, StoredAtEpochMs: *env.Timestamp}, true
}

// Set stores value stamped with the current time, overwriting any previous
// entry. Failures are logged and returned wrapping ErrStorageWrite.
func Set[T any](ctx context.Context, c *Cache, namespace, key string, value T) error {
	fullKey := c.Key(namespace, key)

	payload, err := json.Marshal(Entry[T]{Data: value, StoredAtEpochMs: c.now().UnixMilli()})
	if err != nil {
		c.logger.Error("failed to serialize cache entry", "key", fullKey, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrStorageWrite, fullKey, err)
	}

	if err := c.backend.Set(ctx, fullKey, string(payload)); err != nil {
		c.logger.Error("failed to cache data", "key", fullKey, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrStorageWrite, fullKey, err)
	}

	c.logger.Debug("cached new entry", "key", fullKey)
	return nil
}

// ClearAll removes every entry carrying the cache prefix, in any namespace,
// and returns how many were removed.
func (c *Cache) ClearAll(ctx context.Context) (int, error) {
	keys, err := c.backend.Keys(ctx, c.prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate cache keys: %w", err)
	}

	removed := 0
	for _, key := range keys {
		if err := c.backend.Remove(ctx, key); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", key, err)
		}
		removed++
	}

	c.logger.Info("cleared cache", "removed", removed, "prefix", c.prefix)
	return removed, nil
}
