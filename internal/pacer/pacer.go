package pacer

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Waiter blocks until the next request may be issued.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Pacer enforces a fixed quiet interval after each request. Every Wait
// lasts a full interval measured from the call, however long the request
// before it took.
type Pacer struct {
	interval time.Duration
}

// New creates a Pacer. An interval of zero or less disables pacing.
func New(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait blocks for one interval or until ctx is done. It fails at once when
// ctx's deadline falls before the interval ends.
func (p *Pacer) Wait(ctx context.Context) error {
	return drained(p.interval).Wait(ctx)
}

// drained returns a single-token limiter whose token is already spent, so
// the next token arrives one interval from now.
func drained(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	limiter.Allow()
	return limiter
}
