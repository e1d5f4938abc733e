// Package store persists capsules, users, and per-user reading progress
// in SQLite. The store is an explicitly constructed handle injected into
// the pipeline and the HTTP layer; there are no package-level singletons.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gaurav-prasanna/codecapsule/core"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// currentSchemaVersion is the latest schema version.
// Bump when adding migrations.
const currentSchemaVersion = 1

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Capsule is a persisted capsule row. Content is the structured document
// written once at creation; the row is never mutated afterwards.
type Capsule struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	TotalPages int                 `json:"total_pages"`
	Content    core.CapsuleContent `json:"content"`
	CreatedBy  string              `json:"created_by"`
	CreatedAt  time.Time           `json:"created_at"`
}

// CapsuleWithProgress is a capsule joined with its creator's name and,
// when a user is known, that user's reading-progress row.
type CapsuleWithProgress struct {
	Capsule
	CreatorName     string     `json:"creator_name,omitempty"`
	LastPageRead    *int       `json:"last_page_read,omitempty"`
	OverallProgress *float64   `json:"overall_progress,omitempty"`
	BookmarkedDate  *time.Time `json:"bookmarked_date,omitempty"`
	LastAccessed    *time.Time `json:"last_accessed,omitempty"`
}

// Open initializes the SQLite database at dataDir/codecapsule.db.
// The dataDir parameter lets tests use t.TempDir().
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "codecapsule.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS users (
		  id         TEXT PRIMARY KEY,
		  name       TEXT NOT NULL,
		  email      TEXT NOT NULL UNIQUE,
		  created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS capsules (
		  id          TEXT PRIMARY KEY,
		  title       TEXT NOT NULL,
		  total_pages INTEGER NOT NULL,
		  content     TEXT NOT NULL,
		  created_by  TEXT NOT NULL,
		  created_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_capsules_created_by
		ON capsules(created_by, created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_capsules_created_at
		ON capsules(created_at DESC);

		CREATE TABLE IF NOT EXISTS user_capsules (
		  id               TEXT PRIMARY KEY,
		  user_id          TEXT NOT NULL,
		  capsule_id       TEXT NOT NULL,
		  last_page_read   INTEGER,
		  overall_progress REAL,
		  bookmarked_date  TEXT,
		  last_accessed    TEXT,
		  UNIQUE(user_id, capsule_id)
		);

		CREATE INDEX IF NOT EXISTS idx_user_capsules_bookmarked
		ON user_capsules(user_id, bookmarked_date DESC)
		WHERE bookmarked_date IS NOT NULL;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("applying schema v1: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("setting schema version: %w", err)
		}
	}
	return nil
}
