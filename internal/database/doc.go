// Package database provides the storage backends behind the followerscan cache.
//
// Two backends implement the same small key/value contract
// (Get, Set, Remove, Keys):
//   - SQLiteStore: a single-file SQLite database (via modernc.org/sqlite),
//     the default for the CLI. It also records finished scan sessions for
//     the history command.
//   - MemoryStore: a map-backed store used by tests and dry runs.
//
// Values are opaque strings; the cache package owns their encoding.
package database
