package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskValue replaces sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys (lower-cased) whose values are always
// masked. Header names are listed in their canonical lower-case form.
var sensitiveKeys = map[string]bool{
	"cookie":              true,
	"cookies":             true,
	"set-cookie":          true,
	"authorization":       true,
	"proxy-authorization": true,
	"x-csrf-token":        true,
	"csrf_token":          true,
	"session":             true,
	"session_id":          true,
	"remember_token":      true,
	"password":            true,
}

// sensitiveKeywords mask any key that contains them, e.g. "auth_header".
var sensitiveKeywords = []string{
	"cookie", "token", "secret", "password", "passwd", "auth", "credential",
}

var (
	// sessionCookiePattern matches a session-bearing cookie pair anywhere in
	// a string. Group 1 is the cookie name.
	sessionCookiePattern = regexp.MustCompile(`(?i)\b(_strava\w*session\w*|\w*session\w*|remember_token|\w*csrf\w*)=([^;\s,]+)`)

	// bearerPattern matches bearer and basic credentials.
	bearerPattern = regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+`)

	// jwtPattern matches JSON web tokens.
	jwtPattern = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`)
)

// SecureHandler wraps an slog.Handler and masks credentials in every
// attribute before passing the record on.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler wraps slog.Default's.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and message and forwards it.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, Redact(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a handler carrying the masked attrs.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup returns a handler that nests subsequent attrs under name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, Redact(a.Value.String()))
	case slog.KindAny:
		if headers, ok := a.Value.Any().(map[string]string); ok {
			return slog.Attr{Key: a.Key, Value: slog.GroupValue(headerAttrs(headers)...)}
		}
	}
	return a
}

// headerAttrs turns a header map into masked attributes.
func headerAttrs(headers map[string]string) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(headers))
	for k, v := range headers {
		attrs = append(attrs, sanitizeAttr(slog.String(k, v)))
	}
	return attrs
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if sensitiveKeys[lower] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Redact masks credentials found inside s and returns the result. Whole
// bearer tokens and JWTs are replaced; session cookie pairs and URL user
// info are masked in place so the rest of the string stays readable.
func Redact(s string) string {
	if s == "" {
		return s
	}
	if bearerPattern.MatchString(s) || jwtPattern.MatchString(s) {
		return MaskValue
	}
	s = sessionCookiePattern.ReplaceAllString(s, "${1}="+MaskValue)
	return redactURLUserinfo(s)
}

// redactURLUserinfo masks the password of a URL such as a proxy address.
func redactURLUserinfo(s string) string {
	if !strings.Contains(s, "://") || !strings.Contains(s, "@") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return s
	}
	if _, has := u.User.Password(); has {
		u.User = url.UserPassword(u.User.Username(), "x")
		return strings.Replace(u.String(), ":x@", ":"+MaskValue+"@", 1)
	}
	return s
}

// NewSecureLogger returns a text logger on w that masks credentials.
// verbose lowers the level from Warn to Debug.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
