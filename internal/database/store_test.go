package database

import (
	"context"
	"errors"
	"testing"
)

// TestMemoryStore tests the in-memory backend.
func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("set get remove", func(t *testing.T) {
		t.Parallel()

		m := NewMemoryStore()
		if err := m.Set(ctx, "a", "1"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		v, ok, err := m.Get(ctx, "a")
		if err != nil || !ok || v != "1" {
			t.Fatalf("unexpected Get result %q %v %v", v, ok, err)
		}
		if err := m.Remove(ctx, "a"); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if m.Len() != 0 {
			t.Errorf("expected empty store, got %d", m.Len())
		}
	})

	t.Run("keys by prefix", func(t *testing.T) {
		t.Parallel()

		m := NewMemoryStore()
		for _, k := range []string{"x_2", "x_1", "y_1"} {
			_ = m.Set(ctx, k, "v")
		}
		keys, err := m.Keys(ctx, "x_")
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if len(keys) != 2 || keys[0] != "x_1" || keys[1] != "x_2" {
			t.Errorf("unexpected keys %v", keys)
		}
	})

	t.Run("quota rejects oversized writes", func(t *testing.T) {
		t.Parallel()

		m := NewMemoryStore(WithQuota(10))
		if err := m.Set(ctx, "k", "1234"); err != nil {
			t.Fatalf("Set within quota failed: %v", err)
		}
		err := m.Set(ctx, "k2", "123456789")
		if !errors.Is(err, ErrQuotaExceeded) {
			t.Errorf("expected ErrQuotaExceeded, got %v", err)
		}
		// Overwriting the same key accounts for the old value.
		if err := m.Set(ctx, "k", "12345678"); err != nil {
			t.Errorf("expected overwrite within quota, got %v", err)
		}
	})
}
