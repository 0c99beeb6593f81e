package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/ports"
)

type achievementRepository struct {
	db *sql.DB
}

func newAchievementRepository(db *sql.DB) ports.AchievementRepository {
	return &achievementRepository{db: db}
}

// Unlocked returns the achievement names owner has unlocked.
func (r *achievementRepository) Unlocked(ctx context.Context, owner string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM achievements WHERE owner = ?`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		out[name] = true
	}
	return out, rows.Err()
}

// Unlock records an achievement; a repeat is ignored.
func (r *achievementRepository) Unlock(ctx context.Context, owner string, a domain.Achievement, at time.Time) error {
	query := `INSERT OR IGNORE INTO achievements (owner, name, description, unlocked_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, owner, a.Name, a.Description, toMillis(at)); err != nil {
		return fmt.Errorf("failed to unlock achievement: %w", err)
	}
	return nil
}
