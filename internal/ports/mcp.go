package ports

import (
	"context"

	"github.com/devnotmax/studify/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// InsightsProvider serves read-only progress data.
// This is a driven port (implemented by the services layer).
type InsightsProvider interface {
	// Streak returns the streak view; on failure the view is the empty state.
	Streak(ctx context.Context) (domain.StreakView, error)

	// Stats returns counts and goal progress.
	Stats(ctx context.Context) (domain.StatsView, error)

	// History returns one page of finished sessions.
	History(ctx context.Context, page, limit int) (*domain.HistoryPage, error)
}
