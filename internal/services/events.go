package services

import (
	"github.com/devnotmax/studify/internal/domain"
)

// EventKind identifies a controller event.
type EventKind int

const (
	EventTick EventKind = iota
	EventStateChanged
	EventCompleted
	EventCancelled
	EventIdentityChanged
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventTick:
		return "tick"
	case EventStateChanged:
		return "state"
	case EventCompleted:
		return "completed"
	case EventCancelled:
		return "cancelled"
	case EventIdentityChanged:
		return "identity"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event is published to controller subscribers. Snapshot is taken at the
// moment the event was produced.
type Event struct {
	Kind     EventKind
	Snapshot domain.Snapshot
	Results  *domain.SessionResults
	Err      error
}
