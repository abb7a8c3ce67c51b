package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/followerscan/internal/model"
)

// DBFileName is the SQLite file created inside the data directory.
const DBFileName = "followerscan.db"

// timeLayout stores session times with a fixed-width fraction so that text
// order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore is a key/value store and scan history backed by SQLite.
type SQLiteStore struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures SQLiteStore behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a SQLiteStore in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*SQLiteStore, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (s *SQLiteStore) createTables() error {
	schema := `
	-- Cache entries; value is an opaque string owned by the cache package
	CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Finished scan sessions for the history command
	CREATE TABLE IF NOT EXISTS scan_sessions (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		viewer_id TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		scanned INTEGER NOT NULL,
		suspicious INTEGER NOT NULL,
		cached INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		suspicious_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started ON scan_sessions(started_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Get returns the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get entry: %w", err)
	}
	return value, true, nil
}

// Set stores value under key using an UPSERT, so stale entries are
// overwritten in place.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	query := `
	INSERT INTO entries (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set entry: %w", err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove entry: %w", err)
	}
	return nil
}

// Keys returns all keys starting with prefix, sorted.
func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM entries WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
		escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// escapeLike escapes LIKE wildcards; cache keys contain underscores.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SessionRecord is one row of the scan history.
type SessionRecord struct {
	ID         string
	Kind       model.ScanKind
	ViewerID   string
	StartedAt  time.Time
	FinishedAt time.Time
	Scanned    int
	Suspicious int
	Cached     int
	Failed     int

	// SuspiciousProfiles holds the flagged resolutions of the session.
	SuspiciousProfiles []model.Resolution
}

// SaveSession stores a finished scan summary.
func (s *SQLiteStore) SaveSession(ctx context.Context, summary *model.ScanSummary) error {
	suspicious := summary.Suspicious()
	suspiciousJSON, err := json.Marshal(suspicious)
	if err != nil {
		return fmt.Errorf("failed to serialize suspicious profiles: %w", err)
	}

	query := `
	INSERT INTO scan_sessions (id, kind, viewer_id, started_at, finished_at, scanned, suspicious, cached, failed, suspicious_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		finished_at = excluded.finished_at,
		scanned = excluded.scanned,
		suspicious = excluded.suspicious,
		cached = excluded.cached,
		failed = excluded.failed,
		suspicious_json = excluded.suspicious_json
	`

	_, err = s.db.ExecContext(ctx, query,
		summary.SessionID,
		string(summary.Kind),
		summary.ViewerID,
		summary.StartedAt.UTC().Format(timeLayout),
		summary.FinishedAt.UTC().Format(timeLayout),
		summary.Scanned(),
		len(suspicious),
		summary.CachedCount(),
		summary.FailedCount(),
		string(suspiciousJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save scan session: %w", err)
	}
	return nil
}

// ListSessions returns the most recent sessions first. limit <= 0 returns all.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	query := `
	SELECT id, kind, viewer_id, started_at, finished_at, scanned, suspicious, cached, failed, suspicious_json
	FROM scan_sessions
	ORDER BY started_at DESC, rowid DESC
	`
	args := make([]interface{}, 0)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan sessions: %w", err)
	}
	defer rows.Close()

	var results []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var kind, startedAt, finishedAt string
		var viewerID, suspiciousJSON sql.NullString

		if err := rows.Scan(&rec.ID, &kind, &viewerID, &startedAt, &finishedAt,
			&rec.Scanned, &rec.Suspicious, &rec.Cached, &rec.Failed, &suspiciousJSON); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		rec.Kind = model.ScanKind(kind)
		rec.ViewerID = viewerID.String
		rec.StartedAt = parseTimestamp(startedAt)
		rec.FinishedAt = parseTimestamp(finishedAt)
		if suspiciousJSON.Valid && suspiciousJSON.String != "" {
			if err := json.Unmarshal([]byte(suspiciousJSON.String), &rec.SuspiciousProfiles); err != nil {
				rec.SuspiciousProfiles = nil
			}
		}

		results = append(results, rec)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
var timestampFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, it returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
