// Package store persists exercises, review events and practice sessions in
// a local SQLite database. It is the only writer of scheduling state: every
// review flows through ApplyReview, which runs the SM-2 transition and the
// event append in a single transaction.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/abhisek/maestro/internal/srs"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// DefaultPassThreshold is the quality rating at or above which a review
// marks the exercise completed. Overridable with WithPassThreshold.
const DefaultPassThreshold = srs.QualityHard

// timeLayout is a fixed-width UTC timestamp encoding. Zero-padded
// nanoseconds keep lexicographic order identical to chronological order,
// which the due queries rely on.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Store provides durable access to exercises, review events and sessions.
type Store struct {
	db            *sqlx.DB
	passThreshold srs.Quality
	locks         lockTable
}

// Option configures a Store at open time.
type Option func(*Store)

// WithPassThreshold overrides the quality threshold used to flag an
// exercise as completed after a review.
func WithPassThreshold(q srs.Quality) Option {
	return func(s *Store) { s.passThreshold = q }
}

// Open creates a Store backed by the SQLite database at dsn. It applies
// recommended pragmas and bootstraps the schema.
func Open(dsn string, opts ...Option) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{db: db, passThreshold: DefaultPassThreshold}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DB returns the underlying *sqlx.DB for raw queries.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// applyPragmas configures SQLite for single-user local use.
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func createSchema(db *sqlx.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS exercises (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	domain         TEXT NOT NULL,
	difficulty     INTEGER NOT NULL,
	steps          TEXT NOT NULL DEFAULT '[]',
	content        TEXT NOT NULL DEFAULT '',
	tests          TEXT NOT NULL DEFAULT '[]',
	ease_factor    REAL NOT NULL,
	interval_days  INTEGER NOT NULL,
	repetitions    INTEGER NOT NULL,
	last_reviewed  TEXT,
	next_due       TEXT NOT NULL,
	completed      INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exercises_next_due ON exercises (next_due);
CREATE INDEX IF NOT EXISTS idx_exercises_domain ON exercises (domain);

CREATE TABLE IF NOT EXISTS review_events (
	id                  TEXT PRIMARY KEY,
	exercise_id         TEXT NOT NULL,
	timestamp           TEXT NOT NULL,
	quality             INTEGER NOT NULL,
	resulting_interval  INTEGER NOT NULL,
	resulting_ease      REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_review_events_exercise ON review_events (exercise_id, timestamp);

CREATE TABLE IF NOT EXISTS sessions (
	id                TEXT PRIMARY KEY,
	started_at        TEXT NOT NULL,
	duration_minutes  INTEGER NOT NULL,
	domain            TEXT NOT NULL DEFAULT '',
	selected          TEXT NOT NULL DEFAULT '[]',
	attempted         TEXT NOT NULL DEFAULT '[]',
	completed_at      TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_completed ON sessions (completed_at);
`
	_, err := db.Exec(schema)
	return err
}

// lockTable hands out one mutex per exercise id so concurrent reviews of
// the same exercise serialize while reviews of different exercises proceed
// independently. The SM-2 transition is not commutative, so interleaved
// read-modify-write cycles on one exercise would lose updates.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (lt *lockTable) forID(id string) *sync.Mutex {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	if lt.locks == nil {
		lt.locks = make(map[string]*sync.Mutex)
	}
	l, ok := lt.locks[id]
	if !ok {
		l = &sync.Mutex{}
		lt.locks[id] = l
	}
	return l
}

// DefaultDBPath resolves the database file path in priority order:
// 1. MAESTRO_DB environment variable
// 2. $XDG_DATA_HOME/maestro/maestro.db
// 3. ~/.local/share/maestro/maestro.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("MAESTRO_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "maestro", "maestro.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// encodeTime renders t in the store's fixed-width UTC layout.
func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// decodeTime parses a timestamp written by encodeTime.
func decodeTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}
