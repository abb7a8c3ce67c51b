package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/followerscan/internal/cache"
	"github.com/nao1215/followerscan/internal/extract"
	"github.com/nao1215/followerscan/internal/fetch"
	"github.com/nao1215/followerscan/internal/model"
	"github.com/nao1215/followerscan/internal/pacer"
)

// ErrInvalidAthleteID is returned when the crawl target is not a numeric id.
var ErrInvalidAthleteID = errors.New("invalid athlete id")

// EmptyPagesToStop is the number of consecutive empty listing pages that
// ends a crawl.
const EmptyPagesToStop = 2

// DefaultMaxPages caps a single crawl.
const DefaultMaxPages = 1000

// Crawler walks the follower listing of one athlete.
type Crawler struct {
	fetcher   fetch.Fetcher
	extractor *extract.Extractor
	ids       *cache.Store[[]string]
	pacer     pacer.Waiter
	delay     time.Duration
	baseURL   string
	maxPages  int
	logger    *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// Stats describes the most recent crawl.
type Stats struct {
	// Target is the athlete whose followers were discovered.
	Target string

	// PagesFetched is the number of listing pages requested.
	PagesFetched int

	// RawRows is the number of listing rows seen, duplicates included.
	RawRows int

	// UniqueIDs is the size of the discovered set.
	UniqueIDs int

	// FromCache is true when the set was served from the cache.
	FromCache bool

	// Duration is the wall time of the crawl.
	Duration time.Duration
}

// Option configures a Crawler.
type Option func(*Crawler)

// DefaultDelay is the minimum interval between listing page requests.
const DefaultDelay = time.Second

// WithDelay sets the minimum interval between listing page requests.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) {
		c.delay = d
	}
}

// WithPacer replaces the per-crawl pacer built from the delay.
func WithPacer(p pacer.Waiter) Option {
	return func(c *Crawler) {
		c.pacer = p
	}
}

// WithBaseURL sets the site root used to build listing URLs.
func WithBaseURL(baseURL string) Option {
	return func(c *Crawler) {
		c.baseURL = baseURL
	}
}

// WithMaxPages caps the number of listing pages per crawl. Zero or less
// removes the cap.
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		c.maxPages = n
	}
}

// WithLogger sets a custom logger for the crawler.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// NewCrawler creates a Crawler that fetches with fetcher, reads pages with
// extractor and caches discovered sets in ids.
func NewCrawler(fetcher fetch.Fetcher, extractor *extract.Extractor, ids *cache.Store[[]string], opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:   fetcher,
		extractor: extractor,
		ids:       ids,
		delay:     DefaultDelay,
		baseURL:   model.DefaultBaseURL,
		maxPages:  DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// DiscoverFollowerIDs returns the follower ids of targetID in first-seen
// order without duplicates.
//
// A failed page fetch aborts the crawl and nothing is cached, since a
// truncated set would under-scan.
func (c *Crawler) DiscoverFollowerIDs(ctx context.Context, targetID string) ([]string, error) {
	if !model.IsAthleteID(targetID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAthleteID, targetID)
	}

	start := time.Now()
	if ids, ok := c.ids.Get(ctx, targetID); ok {
		c.logger.Info("using cached follower ids", "target", targetID, "count", len(ids))
		c.setStats(Stats{
			Target:    targetID,
			UniqueIDs: len(ids),
			FromCache: true,
			Duration:  time.Since(start),
		})
		return ids, nil
	}

	waiter := c.pacer
	if waiter == nil {
		waiter = pacer.New(c.delay)
	}

	var (
		seen       = make(map[string]struct{})
		ids        = make([]string, 0)
		emptyPages int
		stats      = Stats{Target: targetID}
	)

	for page := 1; ; page++ {
		rows, err := c.fetchPage(ctx, targetID, page)
		if err != nil {
			return nil, err
		}
		stats.PagesFetched++
		stats.RawRows += len(rows)

		if len(rows) == 0 {
			emptyPages++
		} else {
			emptyPages = 0
			for _, id := range rows {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}

		c.logger.Debug("crawled follower page",
			"target", targetID,
			"page", page,
			"rows", len(rows),
			"total", len(ids))

		if emptyPages >= EmptyPagesToStop {
			break
		}
		if c.maxPages > 0 && page >= c.maxPages {
			c.logger.Warn("follower crawl hit page cap", "target", targetID, "max_pages", c.maxPages)
			break
		}

		if err := waiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("crawl of %s interrupted: %w", targetID, err)
		}
	}

	if err := c.ids.Set(ctx, targetID, ids); err != nil {
		c.logger.Warn("failed to cache follower ids", "target", targetID, "error", err)
	}

	stats.UniqueIDs = len(ids)
	stats.Duration = time.Since(start)
	c.setStats(stats)

	c.logger.Info("discovered followers",
		"target", targetID,
		"count", len(ids),
		"pages", stats.PagesFetched,
		"duration", stats.Duration)

	return ids, nil
}

// fetchPage requests one listing page and returns its raw rows.
func (c *Crawler) fetchPage(ctx context.Context, targetID string, page int) ([]string, error) {
	pageURL := model.FollowersPageURL(c.baseURL, targetID, page)

	resp, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch follower page %d of %s: %w", page, targetID, err)
	}
	if resp.NotFound() {
		return nil, fmt.Errorf("follower page %d of %s: %w", page, targetID, fetch.ErrProfileNotFound)
	}

	doc, err := extract.ParseDocument(bytes.NewReader(resp.Body), resp.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to parse follower page %d of %s: %w", page, targetID, err)
	}
	return c.extractor.FollowerIDs(doc), nil
}

// Stats returns statistics for the most recent crawl.
func (c *Crawler) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Crawler) setStats(s Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = s
}
