package database

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrQuotaExceeded is returned by a MemoryStore that is over its size limit.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// MemoryStore is an in-memory key/value store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string

	// maxBytes limits the total size of keys and values. 0 means unlimited.
	maxBytes int
	size     int
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithQuota limits the total stored bytes. Writes that would exceed it fail
// with ErrQuotaExceeded.
func WithQuota(maxBytes int) MemoryOption {
	return func(m *MemoryStore) {
		m.maxBytes = maxBytes
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		entries: make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

// Set stores value under key, replacing any previous value.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	newSize := m.size + len(key) + len(value)
	if old, ok := m.entries[key]; ok {
		newSize -= len(key) + len(old)
	}
	if m.maxBytes > 0 && newSize > m.maxBytes {
		return ErrQuotaExceeded
	}

	m.entries[key] = value
	m.size = newSize
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.entries[key]; ok {
		m.size -= len(key) + len(old)
		delete(m.entries, key)
	}
	return nil
}

// Keys returns all keys starting with prefix, sorted.
func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
