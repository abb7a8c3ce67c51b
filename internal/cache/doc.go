// Package cache is the persistent, namespaced cache in front of the site.
//
// Every key is stored as "{prefix}{namespace}_{key}" in a Backend (see
// package database) and every value is a JSON envelope
//
//	{"data": <value>, "timestamp": <epoch milliseconds>}
//
// A value that is missing, is not valid JSON, or lacks the timestamp reads
// as absent. Freshness is decided per namespace by a Store: profiles expire
// after their TTL, follower id sets never do and are only dropped by
// ClearAll. Stale entries are never evicted; the next successful write
// overwrites them.
//
// Writes never panic on storage failure. They return an error wrapping
// ErrStorageWrite, log it, and callers carry on without the entry.
package cache
