// Package history persists one row per build in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Outcome of a build.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Record is one build.
type Record struct {
	BuildID     string
	StartedAt   time.Time
	Duration    time.Duration
	Outcome     Outcome
	Pages       int
	BrokenLinks int
	Warnings    int
	OutputHash  string
	Error       string
	Version     string
}

// NewBuildID returns a fresh build identifier.
func NewBuildID() string { return uuid.NewString() }

// Store records builds.
type Store interface {
	Record(ctx context.Context, rec Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		pages INTEGER NOT NULL DEFAULT 0,
		broken_links INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		output_hash TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		version TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts rec. The build id must be unique.
func (s *SQLiteStore) Record(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.BuildID == "" {
		return fmt.Errorf("record build: empty build id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, started_at, duration_ms, outcome, pages, broken_links, warnings, output_hash, error, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BuildID, rec.StartedAt.UnixMilli(), rec.Duration.Milliseconds(), string(rec.Outcome),
		rec.Pages, rec.BrokenLinks, rec.Warnings, rec.OutputHash, rec.Error, rec.Version,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// Recent returns up to limit builds, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT build_id, started_at, duration_ms, outcome, pages, broken_links, warnings, output_hash, error, version
		 FROM builds ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r                   Record
			startedMS, duration int64
			outcome             string
		)
		if err := rows.Scan(&r.BuildID, &startedMS, &duration, &outcome, &r.Pages, &r.BrokenLinks,
			&r.Warnings, &r.OutputHash, &r.Error, &r.Version); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		r.StartedAt = time.UnixMilli(startedMS).UTC()
		r.Duration = time.Duration(duration) * time.Millisecond
		r.Outcome = Outcome(outcome)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
