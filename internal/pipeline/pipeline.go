package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/followerscan/internal/classify"
	"github.com/nao1215/followerscan/internal/model"
	"github.com/nao1215/followerscan/internal/pacer"
)

// DefaultProfileDelay is the minimum interval after each live profile fetch
// in a sequential scan.
const DefaultProfileDelay = 500 * time.Millisecond

// Notifier receives suspicious profiles as they are found.
//
// Run calls Notify synchronously, before resolving the next profile, so a
// slow notifier delays the scan. A returned error is logged and never fails
// the scan; implementations that must not block should hand off to their
// own goroutine.
type Notifier interface {
	Notify(ctx context.Context, record model.ProfileRecord, reasons []string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, record model.ProfileRecord, reasons []string) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, record model.ProfileRecord, reasons []string) error {
	return f(ctx, record, reasons)
}

// Pipeline resolves and classifies profiles.
type Pipeline struct {
	resolver ProfileResolver
	notifier Notifier
	pacer    pacer.Waiter
	delay    time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithNotifier sets where suspicious profiles are forwarded during Run.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) {
		p.notifier = n
	}
}

// WithDelay sets the minimum interval after each live fetch in Run.
func WithDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		p.delay = d
	}
}

// WithPacer replaces the per-run pacer built from the delay.
func WithPacer(w pacer.Waiter) Option {
	return func(p *Pipeline) {
		p.pacer = w
	}
}

// WithClock sets the evaluation instant source for classification.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline over resolver.
func New(resolver ProfileResolver, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver: resolver,
		delay:    DefaultProfileDelay,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Resolve resolves one id and classifies the result. A fetch failure is
// recorded in the Resolution rather than returned.
func (p *Pipeline) Resolve(ctx context.Context, athleteID string) model.Resolution {
	record, fromCache, err := p.resolver.ResolveProfile(ctx, athleteID)

	res := model.Resolution{
		Record:    record,
		FromCache: fromCache,
		Verdict:   classify.Classify(record, p.now()),
	}
	if err != nil {
		res.Error = err.Error()
		p.logger.Warn("failed to fetch profile", "athlete", athleteID, "error", err)
	}
	return res
}

// Run resolves ids strictly in order. After every resolution that was not
// served from the cache it waits for the pacer before moving on. Suspicious
// results are forwarded to the notifier immediately; notifier errors are
// logged and otherwise ignored.
//
// Run returns every resolution in input order. If ctx ends early it returns
// the resolutions completed so far together with the context error.
func (p *Pipeline) Run(ctx context.Context, ids []string) ([]model.Resolution, error) {
	waiter := p.pacer
	if waiter == nil {
		waiter = pacer.New(p.delay)
	}

	results := make([]model.Resolution, 0, len(ids))
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("scan cancelled", "resolved", len(results), "total", len(ids), "reason", err)
			return results, err
		}

		res := p.Resolve(ctx, id)
		results = append(results, res)

		p.logger.Debug("resolved profile",
			"athlete", id,
			"index", i+1,
			"total", len(ids),
			"from_cache", res.FromCache,
			"suspicious", res.Verdict.Suspicious)

		if res.Verdict.Suspicious && p.notifier != nil {
			if err := p.notifier.Notify(ctx, res.Record.Clone(), res.Verdict.Reasons); err != nil {
				p.logger.Warn("failed to deliver notification", "athlete", id, "error", err)
			}
		}

		if !res.FromCache {
			if err := waiter.Wait(ctx); err != nil {
				return results, err
			}
		}
	}

	return results, nil
}
