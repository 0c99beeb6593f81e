package ports

import (
	"context"
	"time"

	"github.com/devnotmax/studify/internal/domain"
)

// KeyValueStore persists small client-local documents such as settings.
// This is a driven port (implemented by adapters).
type KeyValueStore interface {
	// Get returns the value for key, or nil when absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// IdentityStore persists the signed-in identity.
type IdentityStore interface {
	// LoadIdentity returns the stored identity, or an anonymous one.
	LoadIdentity(ctx context.Context) (domain.Identity, error)

	// SaveIdentity replaces the stored identity.
	SaveIdentity(ctx context.Context, id domain.Identity) error

	// ClearIdentity signs out.
	ClearIdentity(ctx context.Context) error
}

// SessionRepository persists sessions for the local backend.
// This is a driven port (implemented by adapters).
type SessionRepository interface {
	// Save inserts a new session.
	Save(ctx context.Context, session *domain.Session) error

	// Update replaces a stored session.
	Update(ctx context.Context, session *domain.Session) error

	// FindByID retrieves a session owned by owner.
	FindByID(ctx context.Context, owner, id string) (*domain.Session, error)

	// FindActive returns the owner's active session, or nil.
	FindActive(ctx context.Context, owner string) (*domain.Session, error)

	// FindTerminal returns completed or cancelled sessions, most recent first.
	FindTerminal(ctx context.Context, owner string, offset, limit int) ([]*domain.Session, error)

	// CountTerminal counts completed or cancelled sessions.
	CountTerminal(ctx context.Context, owner string) (int, error)

	// CompletedSince returns the end times of completed sessions of kind at or
	// after since, oldest first.
	CompletedSince(ctx context.Context, owner string, kind domain.SessionKind, since time.Time) ([]time.Time, error)
}

// AchievementRepository records which achievements an owner has unlocked.
type AchievementRepository interface {
	// Unlocked returns the names already unlocked by owner.
	Unlocked(ctx context.Context, owner string) (map[string]bool, error)

	// Unlock records an achievement. Unlocking twice is a no-op.
	Unlock(ctx context.Context, owner string, a domain.Achievement, at time.Time) error
}

// Storage is the combined repository interface.
// This is a driven port (implemented by adapters).
type Storage interface {
	// Settings provides access to client-local documents.
	Settings() KeyValueStore

	// Identity provides access to the signed-in identity.
	Identity() IdentityStore

	// Sessions provides access to local backend sessions.
	Sessions() SessionRepository

	// Achievements provides access to unlocked achievements.
	Achievements() AchievementRepository

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate() error
}
