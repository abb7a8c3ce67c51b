package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/followerscan/internal/cache"
	"github.com/nao1215/followerscan/internal/crawler"
	"github.com/nao1215/followerscan/internal/extract"
	"github.com/nao1215/followerscan/internal/fetch"
	"github.com/nao1215/followerscan/internal/model"
	"github.com/nao1215/followerscan/internal/pacer"
)

// ErrNoViewer is returned when the signed-in athlete cannot be determined.
var ErrNoViewer = errors.New("could not determine the signed-in athlete")

const (
	// DefaultProfileTTL is how long a cached profile stays fresh.
	DefaultProfileTTL = 30 * 24 * time.Hour

	// DefaultViewerTTL is how long the cached signed-in athlete id is kept.
	DefaultViewerTTL = 60 * time.Minute

	// ViewerPath is a signed-in page whose header links to the viewer's profile.
	ViewerPath = "/dashboard"

	// NotificationsPath lists the viewer's recent notifications.
	NotificationsPath = "/notifications"

	viewerCacheKey = "current"
)

// SessionRecorder persists finished scans.
type SessionRecorder interface {
	SaveSession(ctx context.Context, summary *model.ScanSummary) error
}

// Orchestrator runs full follower scans and targeted batch scans.
type Orchestrator struct {
	fetcher   fetch.Fetcher
	extractor *extract.Extractor
	crawler   *crawler.Crawler
	pipeline  *Pipeline
	batch     *BatchProcessor
	viewers   *cache.Store[string]

	recorder     SessionRecorder
	notifier     Notifier
	pacer        pacer.Waiter
	viewerID     string
	baseURL      string
	crawlDelay   time.Duration
	profileDelay time.Duration
	profileTTL   time.Duration
	viewerTTL    time.Duration
	concurrency  int
	maxPages     int
	stableList   StableListOptions
	now          func() time.Time
	logger       *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger sets a custom logger for the orchestrator and the
// components it builds.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithBaseURL sets the site root.
func WithBaseURL(baseURL string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithViewerID fixes the signed-in athlete id instead of discovering it.
func WithViewerID(id string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.viewerID = id
	}
}

// WithCrawlDelay sets the interval between follower listing pages.
func WithCrawlDelay(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.crawlDelay = d
	}
}

// WithProfileDelay sets the interval after each live profile fetch.
func WithProfileDelay(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.profileDelay = d
	}
}

// WithProfileTTL sets how long cached profiles stay fresh.
func WithProfileTTL(ttl time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.profileTTL = ttl
	}
}

// WithViewerTTL sets how long the discovered viewer id is cached.
func WithViewerTTL(ttl time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.viewerTTL = ttl
	}
}

// WithBatchConcurrency caps simultaneous resolutions in a batch scan.
func WithBatchConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.concurrency = n
	}
}

// WithMaxPages caps how many listing pages one crawl may fetch.
// Zero removes the cap.
func WithMaxPages(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.maxPages = n
	}
}

// WithScanNotifier sets where suspicious profiles go during a follower scan.
func WithScanNotifier(n Notifier) OrchestratorOption {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// WithRecorder sets where finished scans are saved.
func WithRecorder(r SessionRecorder) OrchestratorOption {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithScanPacer replaces the crawl and profile pacers with w.
func WithScanPacer(w pacer.Waiter) OrchestratorOption {
	return func(o *Orchestrator) {
		o.pacer = w
	}
}

// WithStableListOptions bounds the wait for the notifications list.
func WithStableListOptions(opts StableListOptions) OrchestratorOption {
	return func(o *Orchestrator) {
		o.stableList = opts
	}
}

// WithScanClock sets the time source for sessions and classification.
func WithScanClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator wires a crawler, resolver and both drivers over fetcher
// and c.
func NewOrchestrator(fetcher fetch.Fetcher, c *cache.Cache, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		fetcher:      fetcher,
		baseURL:      model.DefaultBaseURL,
		crawlDelay:   crawler.DefaultDelay,
		maxPages:     crawler.DefaultMaxPages,
		profileDelay: DefaultProfileDelay,
		profileTTL:   DefaultProfileTTL,
		viewerTTL:    DefaultViewerTTL,
		stableList:   DefaultStableListOptions(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	o.extractor = extract.New(extract.WithLogger(o.logger))
	o.viewers = cache.NewStore[string](c, cache.NamespaceViewer, o.viewerTTL)

	crawlOpts := []crawler.Option{
		crawler.WithBaseURL(o.baseURL),
		crawler.WithDelay(o.crawlDelay),
		crawler.WithMaxPages(o.maxPages),
		crawler.WithLogger(o.logger),
	}
	pipeOpts := []Option{
		WithDelay(o.profileDelay),
		WithClock(o.now),
		WithLogger(o.logger),
	}
	if o.pacer != nil {
		crawlOpts = append(crawlOpts, crawler.WithPacer(o.pacer))
		pipeOpts = append(pipeOpts, WithPacer(o.pacer))
	}
	if o.notifier != nil {
		pipeOpts = append(pipeOpts, WithNotifier(o.notifier))
	}

	o.crawler = crawler.NewCrawler(fetcher, o.extractor,
		cache.NewStore[[]string](c, cache.NamespaceFollowerIDs, 0), crawlOpts...)

	resolver := NewResolver(fetcher, o.extractor,
		cache.NewStore[model.ProfileRecord](c, cache.NamespaceProfile, o.profileTTL),
		WithResolverBaseURL(o.baseURL),
		WithResolverLogger(o.logger))

	o.pipeline = New(resolver, pipeOpts...)
	o.batch = NewBatchProcessor(o.pipeline,
		WithConcurrency(o.concurrency),
		WithBatchLogger(o.logger))

	return o
}

// ResolveViewer returns the signed-in athlete id. A configured id wins,
// then a cached one; otherwise it is read from the site header and cached.
func (o *Orchestrator) ResolveViewer(ctx context.Context) (string, error) {
	if o.viewerID != "" {
		return o.viewerID, nil
	}
	if id, ok := o.viewers.Get(ctx, viewerCacheKey); ok && id != "" {
		return id, nil
	}

	resp, err := o.fetcher.Fetch(ctx, o.baseURL+ViewerPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoViewer, err)
	}
	doc, err := extract.ParseDocument(bytes.NewReader(resp.Body), resp.ContentType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoViewer, err)
	}

	id := o.extractor.ViewerID(doc)
	if id == "" {
		return "", fmt.Errorf("%w: no profile link in page header (is the session cookie valid?)", ErrNoViewer)
	}
	if err := o.viewers.Set(ctx, viewerCacheKey, id); err != nil {
		o.logger.Debug("continuing without caching viewer id", "error", err)
	}
	o.logger.Info("resolved signed-in athlete", "athlete", id)
	return id, nil
}

// ScanFollowers crawls the follower list of targetID (the signed-in athlete
// when empty) and resolves every follower in discovery order, notifying
// about suspicious ones as they are found.
//
// A crawl failure aborts the scan. A cancelled context ends it early with
// the profiles resolved so far. In both cases the returned summary covers
// what was done.
func (o *Orchestrator) ScanFollowers(ctx context.Context, targetID string) (*model.ScanSummary, error) {
	session := NewSession(model.ScanKindFollowers, o.now())
	o.logger.Info("follower scan started", "session", session.ID())

	runErr := o.scanFollowers(ctx, session, targetID)
	return o.finish(ctx, session, runErr)
}

func (o *Orchestrator) scanFollowers(ctx context.Context, session *Session, targetID string) error {
	viewerID, err := o.ResolveViewer(ctx)
	if err != nil {
		if targetID == "" {
			return err
		}
		o.logger.Warn("scanning without a known viewer", "error", err)
	}
	session.SetViewer(viewerID)
	if targetID == "" {
		targetID = viewerID
	}

	ids, err := o.crawler.DiscoverFollowerIDs(ctx, targetID)
	if err != nil {
		return fmt.Errorf("follower discovery failed: %w", err)
	}
	stats := o.crawler.Stats()
	session.SetCrawl(stats.PagesFetched, stats.FromCache)
	o.logger.Debug("follower list ready",
		"target", stats.Target,
		"pages", stats.PagesFetched,
		"raw_rows", stats.RawRows,
		"unique", stats.UniqueIDs,
		"from_cache", stats.FromCache)

	results, err := o.pipeline.Run(ctx, ids)
	session.Add(results...)
	return err
}

// ScanBatch resolves the athletes named by profileURLs concurrently.
func (o *Orchestrator) ScanBatch(ctx context.Context, profileURLs []string) (*model.ScanSummary, error) {
	session := NewSession(model.ScanKindBatch, o.now())
	o.logger.Info("batch scan started", "session", session.ID(), "inputs", len(profileURLs))

	result, err := o.batch.ProcessBatch(ctx, profileURLs)
	session.Add(result.Results...)
	session.AddInvalid(result.Invalid...)
	return o.finish(ctx, session, err)
}

// NewFollowerURLs reads the "new follower" profile links from the
// notifications feed. A page that already carries the list is used as is;
// otherwise the page is polled until its entry count settles.
func (o *Orchestrator) NewFollowerURLs(ctx context.Context) ([]string, error) {
	poll := func(ctx context.Context) (ListSnapshot[string], error) {
		resp, err := o.fetcher.Fetch(ctx, o.baseURL+NotificationsPath)
		if err != nil {
			return ListSnapshot[string]{}, err
		}
		doc, err := extract.ParseDocument(bytes.NewReader(resp.Body), resp.ContentType)
		if err != nil {
			return ListSnapshot[string]{}, err
		}
		feed := o.extractor.Notifications(doc, o.baseURL)
		o.logger.Debug("read notifications", "present", feed.Present, "items", feed.Items, "new_followers", len(feed.NewFollowerLinks))
		return ListSnapshot[string]{
			Items: feed.NewFollowerLinks,
			Size:  feed.Items,
			Final: feed.Present,
		}, nil
	}
	return WaitForStableList(ctx, poll, o.stableList)
}

// finish closes the session and saves it. Saving uses a context detached
// from cancellation so an interrupted scan is still recorded.
func (o *Orchestrator) finish(ctx context.Context, session *Session, runErr error) (*model.ScanSummary, error) {
	summary := session.Finish(o.now())

	o.logger.Info("scan finished",
		"session", summary.SessionID,
		"kind", summary.Kind,
		"scanned", summary.Scanned(),
		"suspicious", len(summary.Suspicious()),
		"cached", summary.CachedCount(),
		"failed", summary.FailedCount(),
		"duration", summary.Duration())

	if o.recorder != nil {
		if err := o.recorder.SaveSession(context.WithoutCancel(ctx), summary); err != nil {
			o.logger.Warn("failed to record scan session", "session", summary.SessionID, "error", err)
		}
	}
	return summary, runErr
}
