package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/ports"
)

const identityKey = "studify:identity"

// settingsRepository implements ports.KeyValueStore and ports.IdentityStore.
type settingsRepository struct {
	db *sql.DB
}

var (
	_ ports.KeyValueStore = (*settingsRepository)(nil)
	_ ports.IdentityStore = (*settingsRepository)(nil)
)

func newSettingsRepository(db *sql.DB) *settingsRepository {
	return &settingsRepository{db: db}
}

// Get returns the value stored under key, or nil when absent.
func (r *settingsRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Put stores value under key.
func (r *settingsRepository) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, key, value, toMillis(time.Now())); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (r *settingsRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// LoadIdentity returns the stored identity, or an anonymous one.
func (r *settingsRepository) LoadIdentity(ctx context.Context) (domain.Identity, error) {
	raw, err := r.Get(ctx, identityKey)
	if err != nil || raw == nil {
		return domain.Identity{}, err
	}
	var id domain.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return domain.Identity{}, fmt.Errorf("failed to decode identity: %w", err)
	}
	return id, nil
}

// SaveIdentity replaces the stored identity.
func (r *settingsRepository) SaveIdentity(ctx context.Context, id domain.Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	return r.Put(ctx, identityKey, raw)
}

// ClearIdentity removes the stored identity.
func (r *settingsRepository) ClearIdentity(ctx context.Context) error {
	return r.Delete(ctx, identityKey)
}
