package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/followerscan/internal/model"
)

// Session holds the state of one scan from start to finish.
// Results added after Finish are dropped.
type Session struct {
	mu        sync.Mutex
	id        string
	kind      model.ScanKind
	viewerID  string
	pages     int
	idsCached bool
	startedAt time.Time
	results   []model.Resolution
	invalid   []string
	summary   *model.ScanSummary
}

// NewSession starts a session of the given kind.
func NewSession(kind model.ScanKind, startedAt time.Time) *Session {
	return &Session{
		id:        uuid.NewString(),
		kind:      kind,
		startedAt: startedAt,
		results:   make([]model.Resolution, 0),
		invalid:   make([]string, 0),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SetViewer records the signed-in athlete the scan runs for.
func (s *Session) SetViewer(viewerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewerID = viewerID
}

// SetCrawl records how the follower list was obtained.
func (s *Session) SetCrawl(pages int, fromCache bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = pages
	s.idsCached = fromCache
}

// Add appends resolutions in order.
func (s *Session) Add(results ...model.Resolution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary != nil {
		return
	}
	s.results = append(s.results, results...)
}

// AddInvalid records inputs that could not be scanned.
func (s *Session) AddInvalid(inputs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary != nil {
		return
	}
	s.invalid = append(s.invalid, inputs...)
}

// Finish closes the session and returns its summary. Later calls return the
// same summary.
func (s *Session) Finish(finishedAt time.Time) *model.ScanSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary != nil {
		return s.summary
	}
	s.summary = &model.ScanSummary{
		SessionID:          s.id,
		Kind:               s.kind,
		ViewerID:           s.viewerID,
		StartedAt:          s.startedAt,
		FinishedAt:         finishedAt,
		PagesCrawled:       s.pages,
		FollowerListCached: s.idsCached,
		Results:            s.results,
		Invalid:            s.invalid,
	}
	return s.summary
}
