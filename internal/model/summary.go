package model

import "time"

// ScanKind names the entry point that produced a ScanSummary.
type ScanKind string

const (
	// ScanKindFollowers is the sequential full-follower scan.
	ScanKindFollowers ScanKind = "followers"

	// ScanKindBatch is the concurrent targeted scan of a URL list.
	ScanKindBatch ScanKind = "batch"
)

// ScanSummary is what a finished scan hands to the presentation layer and
// to the scan history.
type ScanSummary struct {
	// SessionID identifies the scan session.
	SessionID string `json:"session_id"`

	// Kind is the entry point that ran.
	Kind ScanKind `json:"kind"`

	// ViewerID is the signed-in athlete whose followers were scanned.
	// Empty for batch scans.
	ViewerID string `json:"viewer_id,omitempty"`

	// StartedAt and FinishedAt bound the session.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// PagesCrawled is the number of follower listing pages requested.
	PagesCrawled int `json:"pages_crawled,omitempty"`

	// FollowerListCached is true when the follower ids came from the cache.
	FollowerListCached bool `json:"follower_list_cached,omitempty"`

	// Results holds every resolution in input order.
	Results []Resolution `json:"results"`

	// Invalid lists inputs that did not contain an athlete id.
	Invalid []string `json:"invalid,omitempty"`
}

// Suspicious returns the suspicious resolutions in input order.
func (s *ScanSummary) Suspicious() []Resolution {
	out := make([]Resolution, 0)
	for _, r := range s.Results {
		if r.Verdict.Suspicious {
			out = append(out, r)
		}
	}
	return out
}

// Clean returns the resolutions that passed every rule.
func (s *ScanSummary) Clean() []Resolution {
	out := make([]Resolution, 0)
	for _, r := range s.Results {
		if !r.Verdict.Suspicious {
			out = append(out, r)
		}
	}
	return out
}

// CachedCount returns how many results were served from cache.
func (s *ScanSummary) CachedCount() int {
	n := 0
	for _, r := range s.Results {
		if r.FromCache {
			n++
		}
	}
	return n
}

// FailedCount returns how many profiles could not be fetched.
func (s *ScanSummary) FailedCount() int {
	n := 0
	for _, r := range s.Results {
		if r.Failed() {
			n++
		}
	}
	return n
}

// Scanned returns the number of profiles resolved. Invalid inputs were
// never fetched and are not counted.
func (s *ScanSummary) Scanned() int {
	return len(s.Results)
}

// Duration returns the elapsed session time.
func (s *ScanSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
