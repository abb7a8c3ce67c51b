package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/nao1215/followerscan/internal/cache"
	"github.com/nao1215/followerscan/internal/database"
	"github.com/nao1215/followerscan/internal/fetch"
	"github.com/nao1215/followerscan/internal/model"
)

const testBase = "https://site.test"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache() *cache.Cache {
	return cache.New(database.NewMemoryStore(), cache.WithLogger(discardLogger()))
}

// siteFetcher serves canned pages by URL. Unknown URLs get an empty page.
type siteFetcher struct {
	mu        sync.Mutex
	pages     map[string]string
	redirects map[string]string
	errs      map[string]error
	calls     []string
}

func newSiteFetcher() *siteFetcher {
	return &siteFetcher{
		pages:     make(map[string]string),
		redirects: make(map[string]string),
		errs:      make(map[string]error),
	}
}

func (f *siteFetcher) Fetch(_ context.Context, url string) (*fetch.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	final := url
	if to, ok := f.redirects[url]; ok {
		final = to
	}
	body, ok := f.pages[final]
	if !ok {
		body = "<html><body></body></html>"
	}
	return &fetch.Response{
		FinalURL:    final,
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(body),
	}, nil
}

func (f *siteFetcher) callsTo(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == url {
			n++
		}
	}
	return n
}

func (f *siteFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// profilePage renders a minimal profile page.
func profilePage(name string, followers, following int) string {
	return fmt.Sprintf(`<html><body>
<h1 class="athlete-name" title="Member Since: January 5, 2015">%s</h1>
<ul class="inline-stats"><li>%d Followers</li><li>%d Following</li></ul>
</body></html>`, name, followers, following)
}

// listingPage renders a follower listing page.
func listingPage(ids ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body><ul>")
	for _, id := range ids {
		fmt.Fprintf(&sb, `<li data-athlete-id="%s">athlete %s</li>`, id, id)
	}
	sb.WriteString("</ul></body></html>")
	return sb.String()
}

// countingPacer records waits without blocking.
type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits++
	return ctx.Err()
}

func (p *countingPacer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waits
}

type notification struct {
	id      string
	reasons []string
}

// recordingNotifier captures notifications in order.
type recordingNotifier struct {
	mu   sync.Mutex
	got  []notification
	fail bool
}

func (n *recordingNotifier) Notify(_ context.Context, record model.ProfileRecord, reasons []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, notification{id: record.ID, reasons: reasons})
	if n.fail {
		return errors.New("overlay closed")
	}
	return nil
}

func (n *recordingNotifier) ids() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.got))
	for _, g := range n.got {
		out = append(out, g.id)
	}
	return out
}

// fakeResolver serves records from a map and reports the configured ids as
// cached.
type fakeResolver struct {
	mu      sync.Mutex
	records map[string]model.ProfileRecord
	cached  map[string]bool
	errs    map[string]error
	calls   []string
}

func (r *fakeResolver) ResolveProfile(_ context.Context, id string) (model.ProfileRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, id)
	if err, ok := r.errs[id]; ok {
		return model.NewEmptyProfile(id, model.ProfileURL(testBase, id)), false, err
	}
	rec, ok := r.records[id]
	if !ok {
		rec = model.NewEmptyProfile(id, model.ProfileURL(testBase, id))
	}
	return rec, r.cached[id], nil
}

// recorder captures saved sessions.
type recorder struct {
	mu       sync.Mutex
	sessions []*model.ScanSummary
	err      error
}

func (r *recorder) SaveSession(_ context.Context, s *model.ScanSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
	return r.err
}
