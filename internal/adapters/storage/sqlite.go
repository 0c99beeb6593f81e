// Package storage provides SQLite implementations of the storage ports.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/devnotmax/studify/internal/ports"
	"modernc.org/sqlite"
)

// sqliteStorage implements the ports.Storage interface using SQLite.
type sqliteStorage struct {
	db              *sql.DB
	settingsRepo    *settingsRepository
	sessionRepo     ports.SessionRepository
	achievementRepo ports.AchievementRepository
}

// Ensure sqliteStorage implements ports.Storage.
var _ ports.Storage = (*sqliteStorage)(nil)

// New creates a new SQLite storage instance.
func New(dbPath string) (ports.Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every pooled connection to ":memory:" would be a separate database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	storage := &sqliteStorage{
		db:              db,
		settingsRepo:    newSettingsRepository(db),
		sessionRepo:     newSessionRepository(db),
		achievementRepo: newAchievementRepository(db),
	}

	if err := storage.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return storage, nil
}

// NewMemory creates a new in-memory SQLite storage instance for testing.
func NewMemory() (ports.Storage, error) {
	return New(":memory:")
}

// Settings returns the key-value settings store.
func (s *sqliteStorage) Settings() ports.KeyValueStore {
	return s.settingsRepo
}

// Identity returns the identity store.
func (s *sqliteStorage) Identity() ports.IdentityStore {
	return s.settingsRepo
}

// Sessions returns the session repository.
func (s *sqliteStorage) Sessions() ports.SessionRepository {
	return s.sessionRepo
}

// Achievements returns the achievement repository.
func (s *sqliteStorage) Achievements() ports.AchievementRepository {
	return s.achievementRepo
}

// Close closes the database connection.
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

// Migrate creates the database schema. Times are stored as unix milliseconds.
func (s *sqliteStorage) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		kind TEXT NOT NULL,
		duration INTEGER NOT NULL,
		start_time INTEGER NOT NULL,
		resumed_at INTEGER,
		completed INTEGER NOT NULL DEFAULT 0,
		is_paused INTEGER NOT NULL DEFAULT 0,
		is_completed INTEGER NOT NULL DEFAULT 0,
		is_cancelled INTEGER NOT NULL DEFAULT 0,
		end_time INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_owner ON sessions(owner);
	CREATE INDEX IF NOT EXISTS idx_sessions_end ON sessions(owner, end_time);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active
		ON sessions(owner) WHERE is_completed = 0 AND is_cancelled = 0;

	CREATE TABLE IF NOT EXISTS achievements (
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		unlocked_at INTEGER NOT NULL,
		PRIMARY KEY (owner, name)
	);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	sqliteErr, ok := err.(*sqlite.Error)
	return ok && sqliteErr.Code() == 2067 // SQLITE_CONSTRAINT_UNIQUE
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullableMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}
