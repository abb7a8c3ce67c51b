// Package log builds the slog loggers used by followerscan.
//
// Scans run against a signed-in browser session, so the session cookie and
// any auth headers pass through the process. SecureHandler wraps another
// slog.Handler and masks them before anything is written:
//   - attributes whose key names a credential (cookie, authorization, token)
//   - header maps logged as a group, per header name
//   - session cookie pairs such as "_strava4_session=..." inside any string
//   - user:password credentials embedded in URLs
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log
