package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/followerscan/internal/model"
)

// BatchProcessor resolves many profiles concurrently.
// It has no pacing; repeat load is absorbed by the profile cache.
type BatchProcessor struct {
	// pipeline performs each resolution.
	pipeline *Pipeline

	// concurrency caps simultaneous resolutions. 0 means no cap.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency caps simultaneous resolutions. Zero removes the cap;
// negative values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n >= 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor that resolves through p.
func NewBatchProcessor(p *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipeline: p,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// BatchResult is the outcome of ProcessBatch.
type BatchResult struct {
	// Results holds one resolution per distinct athlete id, in the order the
	// ids first appeared in the input.
	Results []model.Resolution

	// Invalid lists inputs that did not contain an athlete id.
	Invalid []string
}

// ProcessBatch resolves the athletes named by profileURLs concurrently and
// waits for all of them. Per-profile failures are recorded in the results;
// the only error returned is a context error.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, profileURLs []string) (BatchResult, error) {
	ids, invalid := athleteIDsFromURLs(profileURLs)
	for _, raw := range invalid {
		bp.logger.Warn("skipping URL without athlete id", "url", raw)
	}

	bp.logger.Info("starting batch scan",
		"profiles", len(ids),
		"invalid", len(invalid),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	results := make([]model.Resolution, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if bp.concurrency > 0 {
		g.SetLimit(bp.concurrency)
	}

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = bp.pipeline.Resolve(gctx, id)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return BatchResult{Invalid: invalid}, err
	}

	bp.logger.Info("batch scan complete",
		"profiles", len(ids),
		"elapsed", time.Since(startTime),
	)

	return BatchResult{Results: results, Invalid: invalid}, nil
}

// athleteIDsFromURLs extracts athlete ids in first-seen order, dropping
// duplicates. Inputs without an id are returned separately.
func athleteIDsFromURLs(urls []string) ([]string, []string) {
	seen := make(map[string]struct{}, len(urls))
	ids := make([]string, 0, len(urls))
	invalid := make([]string, 0)

	for _, raw := range urls {
		id := model.ExtractAthleteID(raw)
		if id == "" && model.IsAthleteID(raw) {
			id = raw
		}
		if id == "" {
			invalid = append(invalid, raw)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, invalid
}
