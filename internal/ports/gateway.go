// Package ports defines the interfaces (driven and driving ports)
// for studify following hexagonal architecture principles.
// These interfaces define the contracts between the domain layer and
// external infrastructure.
package ports

import (
	"context"

	"github.com/devnotmax/studify/internal/domain"
)

// SessionGateway is the backend session contract.
// This is a driven port (implemented by the REST and local adapters).
//
// Every error returned is a *domain.GatewayError whose Kind is one of the
// domain category sentinels. A response that can't be interpreted is an
// ErrServer failure, never a success.
type SessionGateway interface {
	// Start creates a session. ErrConflict when one is already active.
	Start(ctx context.Context, kind domain.SessionKind, durationSeconds int) (*domain.Session, error)

	// Active returns the caller's active session, or nil when there is none.
	Active(ctx context.Context) (*domain.Session, error)

	// Pause freezes the session and returns the server's copy.
	Pause(ctx context.Context, id string) (*domain.Session, error)

	// Resume unfreezes the session and returns the server's copy.
	Resume(ctx context.Context, id string) (*domain.Session, error)

	// Remaining returns the server-computed seconds left.
	Remaining(ctx context.Context, id string) (int, error)

	// End finalizes the session with the completed seconds.
	End(ctx context.Context, id string, completedSeconds int) (*domain.SessionResults, error)

	// Cancel abandons the session.
	Cancel(ctx context.Context, id string) error

	// History returns terminal sessions, most recent first.
	History(ctx context.Context, page, limit int) (*domain.HistoryPage, error)

	// Streak returns the streak record, or a report with nil Info when the
	// user has none.
	Streak(ctx context.Context) (domain.StreakReport, error)

	// Stats returns completed-session counts.
	Stats(ctx context.Context) (domain.SessionCounts, error)
}

// GatewayFactory builds a gateway bound to one identity.
type GatewayFactory func(id domain.Identity) (SessionGateway, error)
