package fetch

import "errors"

var (
	// ErrProfileNotFound is returned when the site redirected a profile
	// request to its athlete search page.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrUnexpectedStatus is returned for HTTP responses with a 4xx or 5xx
	// status code.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrBodyTooLarge is returned when a response body exceeds the
	// configured size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrInvalidProxyAddress is returned when the proxy address is not in
	// "host:port" form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)
