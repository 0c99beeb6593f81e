package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/ports"
)

const sessionColumns = `id, owner, kind, duration, start_time, resumed_at, completed,
	is_paused, is_completed, is_cancelled, end_time`

// sessionRepository implements ports.SessionRepository using SQLite.
type sessionRepository struct {
	db *sql.DB
}

// newSessionRepository creates a new session repository.
func newSessionRepository(db *sql.DB) ports.SessionRepository {
	return &sessionRepository{db: db}
}

// Save persists a new session. A second active session for the same owner
// fails with domain.ErrConflict.
func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	query := `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		string(session.Kind),
		session.Duration,
		toMillis(session.StartTime),
		nullableMillis(session.ResumedAt),
		session.Completed,
		session.IsPaused,
		session.IsCompleted,
		session.IsCancelled,
		nullableMillis(session.EndTime),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: owner already has an active session", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Update modifies an existing session. StartTime and Duration are never rewritten.
func (r *sessionRepository) Update(ctx context.Context, session *domain.Session) error {
	query := `
		UPDATE sessions
		SET resumed_at = ?, completed = ?, is_paused = ?, is_completed = ?, is_cancelled = ?, end_time = ?
		WHERE id = ? AND owner = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		nullableMillis(session.ResumedAt),
		session.Completed,
		session.IsPaused,
		session.IsCompleted,
		session.IsCancelled,
		nullableMillis(session.EndTime),
		session.ID,
		session.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, session.ID)
	}

	return nil
}

// FindByID retrieves a session owned by owner.
func (r *sessionRepository) FindByID(ctx context.Context, owner, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ? AND owner = ?`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
	}
	return session, err
}

// FindActive returns the owner's active session, or nil.
func (r *sessionRepository) FindActive(ctx context.Context, owner string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE owner = ? AND is_completed = 0 AND is_cancelled = 0
		ORDER BY start_time DESC
		LIMIT 1`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return session, err
}

// FindTerminal returns completed or cancelled sessions, most recent first.
func (r *sessionRepository) FindTerminal(ctx context.Context, owner string, offset, limit int) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE owner = ? AND (is_completed = 1 OR is_cancelled = 1)
		ORDER BY COALESCE(end_time, start_time) DESC, start_time DESC
		LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, owner, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return sessions, nil
}

// CountTerminal counts completed or cancelled sessions.
func (r *sessionRepository) CountTerminal(ctx context.Context, owner string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM sessions WHERE owner = ? AND (is_completed = 1 OR is_cancelled = 1)`
	if err := r.db.QueryRowContext(ctx, query, owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// CompletedSince returns end times of completed sessions of kind at or after
// since, oldest first.
func (r *sessionRepository) CompletedSince(ctx context.Context, owner string, kind domain.SessionKind, since time.Time) ([]time.Time, error) {
	query := `
		SELECT end_time FROM sessions
		WHERE owner = ? AND kind = ? AND is_completed = 1 AND end_time >= ?
		ORDER BY end_time ASC`

	rows, err := r.db.QueryContext(ctx, query, owner, string(kind), toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query completed sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []time.Time
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("failed to scan completed session: %w", err)
		}
		out = append(out, fromMillis(ms))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completed sessions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		s         domain.Session
		kind      string
		startMs   int64
		resumedAt sql.NullInt64
		endTime   sql.NullInt64
	)

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&kind,
		&s.Duration,
		&startMs,
		&resumedAt,
		&s.Completed,
		&s.IsPaused,
		&s.IsCompleted,
		&s.IsCancelled,
		&endTime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	s.Kind = domain.SessionKind(kind)
	s.StartTime = fromMillis(startMs)
	s.ResumedAt = timePtr(resumedAt)
	s.EndTime = timePtr(endTime)
	return &s, nil
}
