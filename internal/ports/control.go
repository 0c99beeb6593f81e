package ports

import (
	"context"

	"github.com/devnotmax/studify/internal/domain"
)

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Confirmed is a Confirmer for callers that already obtained consent.
var Confirmed Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// SessionControl drives the session lifecycle.
// This is a driving port (called by the TUI, CLI and MCP adapters).
type SessionControl interface {
	Snapshot() domain.Snapshot
	Start(ctx context.Context, mode domain.Mode) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Complete(ctx context.Context, force bool) error
	Cancel(ctx context.Context, confirm Confirmer) error
	Refresh(ctx context.Context) error
	DismissResults()
}

// SettingsProvider returns the timer settings in effect.
type SettingsProvider interface {
	Current(ctx context.Context) (domain.TimerSettings, error)
}
