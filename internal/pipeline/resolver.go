package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/followerscan/internal/cache"
	"github.com/nao1215/followerscan/internal/extract"
	"github.com/nao1215/followerscan/internal/fetch"
	"github.com/nao1215/followerscan/internal/model"
)

// ProfileResolver turns an athlete id into a profile record.
type ProfileResolver interface {
	// ResolveProfile returns the record and whether it came from the cache.
	// On fetch failure it returns the empty record for the id together with
	// the error.
	ResolveProfile(ctx context.Context, athleteID string) (model.ProfileRecord, bool, error)
}

// Resolver is the cache-or-fetch ProfileResolver.
type Resolver struct {
	fetcher   fetch.Fetcher
	extractor *extract.Extractor
	profiles  *cache.Store[model.ProfileRecord]
	baseURL   string
	logger    *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverBaseURL sets the site root used to build profile URLs.
func WithResolverBaseURL(baseURL string) ResolverOption {
	return func(r *Resolver) {
		r.baseURL = baseURL
	}
}

// WithResolverLogger sets a custom logger for the resolver.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver.
func NewResolver(fetcher fetch.Fetcher, extractor *extract.Extractor, profiles *cache.Store[model.ProfileRecord], opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher:   fetcher,
		extractor: extractor,
		profiles:  profiles,
		baseURL:   model.DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// ResolveProfile implements ProfileResolver.
//
// Failed fetches are not cached, so the next scan retries them.
func (r *Resolver) ResolveProfile(ctx context.Context, athleteID string) (model.ProfileRecord, bool, error) {
	if record, ok := r.profiles.Get(ctx, athleteID); ok {
		return record, true, nil
	}

	profileURL := model.ProfileURL(r.baseURL, athleteID)
	empty := model.NewEmptyProfile(athleteID, profileURL)

	resp, err := r.fetcher.Fetch(ctx, profileURL)
	if err != nil {
		return empty, false, err
	}
	if resp.NotFound() {
		return empty, false, fmt.Errorf("%w: athlete %s", fetch.ErrProfileNotFound, athleteID)
	}

	doc, err := extract.ParseDocument(bytes.NewReader(resp.Body), resp.ContentType)
	if err != nil {
		return empty, false, fmt.Errorf("failed to parse profile of athlete %s: %w", athleteID, err)
	}
	record := r.extractor.Profile(doc, athleteID, profileURL)

	if err := r.profiles.Set(ctx, athleteID, record); err != nil {
		r.logger.Debug("continuing without caching profile", "athlete", athleteID, "error", err)
	}

	return record, false, nil
}
