// Package model defines the data structures shared across followerscan.
//
// This package contains the following main types:
//   - ProfileRecord: One scraped athlete profile
//   - Verdict: The classifier output for a profile
//   - Resolution: A profile plus its cache origin and verdict
//   - ScanSummary: The result of a full-follower or batch scan
//
// It also holds the site URL helpers (profile and listing URLs, athlete id
// extraction, not-found redirect detection) so every package builds the
// same URLs.
//
// The models are serializable to JSON for cache entries, reports and the
// scan history.
package model
