package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrListNotReady is returned when a polled list never became final, or
// non-empty and stable, within the allowed time.
var ErrListNotReady = errors.New("list did not stabilize in time")

// StableListOptions bounds WaitForStableList.
type StableListOptions struct {
	// MaxWait is the total time allowed.
	MaxWait time.Duration

	// StableFor is how long the item count must stay unchanged.
	StableFor time.Duration

	// PollInterval is the delay between polls.
	PollInterval time.Duration
}

// ListSnapshot is one poll of a list that may still be filling in.
type ListSnapshot[T any] struct {
	// Items are the entries the caller asked for.
	Items []T

	// Size counts every entry seen, wanted or not. Stability is judged on
	// Size, so a list with nothing wanted in it can still settle.
	Size int

	// Final marks a list that will not change on a later poll.
	Final bool
}

// DefaultStableListOptions returns the bounds used for the notifications
// feed.
func DefaultStableListOptions() StableListOptions {
	return StableListOptions{
		MaxWait:      8 * time.Second,
		StableFor:    500 * time.Millisecond,
		PollInterval: 500 * time.Millisecond,
	}
}

// WaitForStableList polls until a snapshot is final, or until its Size is
// non-zero and has not changed for opts.StableFor, then returns that
// snapshot's Items. It gives up with ErrListNotReady after opts.MaxWait.
// A poll error ends the wait.
func WaitForStableList[T any](ctx context.Context, poll func(context.Context) (ListSnapshot[T], error), opts StableListOptions) ([]T, error) {
	defaults := DefaultStableListOptions()
	if opts.MaxWait <= 0 {
		opts.MaxWait = defaults.MaxWait
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaults.PollInterval
	}

	ctx, cancel := context.WithTimeout(ctx, opts.MaxWait)
	defer cancel()

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	var (
		lastCount   int
		stableStart time.Time
	)

	for {
		snap, err := poll(ctx)
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("failed to poll list: %w", err)
		}
		if err == nil && snap.Final {
			return snap.Items, nil
		}

		if n := snap.Size; err == nil && n > 0 {
			if n == lastCount {
				if stableStart.IsZero() {
					stableStart = time.Now()
				}
				if time.Since(stableStart) >= opts.StableFor {
					return snap.Items, nil
				}
			} else {
				lastCount = n
				stableStart = time.Time{}
			}
		}

		select {
		case <-ctx.Done():
			return nil, notReady(ctx, opts.MaxWait)
		case <-ticker.C:
		}
	}
}

// notReady reports why the wait ended: the caller's cancellation, or the
// max wait running out.
func notReady(ctx context.Context, maxWait time.Duration) error {
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}
	return fmt.Errorf("%w after %v", ErrListNotReady, maxWait)
}
