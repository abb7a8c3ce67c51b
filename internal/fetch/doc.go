// Package fetch retrieves site pages over HTTP on behalf of a signed-in
// session.
//
// Every request carries the configured session cookie and extra headers.
// Requests may optionally be routed through a SOCKS5 proxy. The site answers
// unknown athletes by redirecting to its search page rather than returning
// 404, so callers inspect Response.FinalURL (see Response.NotFound) to detect
// a missing profile.
package fetch
