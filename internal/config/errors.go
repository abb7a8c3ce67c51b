package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoTarget is returned when a batch scan has nothing to scan.
	ErrNoTarget = errors.New("no profiles specified: pass profile URLs or use --notifications")

	// ErrInvalidBaseURL is returned when the site URL is not an absolute
	// http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the batch concurrency is negative.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be non-negative (0 means unlimited)")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCrawlDelay is returned when a request delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidTTL is returned when a cache TTL is negative.
	ErrInvalidTTL = errors.New("invalid cache TTL: must be non-negative (0 means never expire)")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidAthleteID is returned when a configured athlete id is not
	// numeric.
	ErrInvalidAthleteID = errors.New("invalid athlete id: must be numeric")
)
