package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every failure surfaced by the gateway or the controller
// matches exactly one of these with errors.Is.
var (
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
	ErrNetwork      = errors.New("network error")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
)

// Specific failures, each wrapping a category.
var (
	ErrTimeRemaining      = fmt.Errorf("%w: session still has time remaining", ErrValidation)
	ErrUserStatsNotFound  = fmt.Errorf("%w: user stats not found", ErrNotFound)
	ErrRequestInFlight    = fmt.Errorf("%w: another request for this session is in flight", ErrConflict)
	ErrInvalidTransition  = fmt.Errorf("%w: operation not allowed in current state", ErrValidation)
	ErrCancelNotConfirmed = fmt.Errorf("%w: cancel requires confirmation", ErrValidation)
	ErrNoActiveSession    = fmt.Errorf("%w: no active session", ErrNotFound)
	ErrNotAuthenticated   = fmt.Errorf("%w: not logged in", ErrUnauthorized)
)

var categories = []error{ErrConflict, ErrNotFound, ErrServer, ErrNetwork, ErrValidation, ErrUnauthorized}

// GatewayError is returned by every SessionGateway implementation.
type GatewayError struct {
	Op      string
	Kind    error
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *GatewayError) Unwrap() error {
	return e.Kind
}

// NewGatewayError builds a GatewayError. The kind must be one of the category
// sentinels; anything else is treated as a server error.
func NewGatewayError(op string, kind error, status int, message string) *GatewayError {
	known := false
	for _, c := range categories {
		if kind == c {
			known = true
			break
		}
	}
	if !known {
		kind = ErrServer
	}
	return &GatewayError{Op: op, Kind: kind, Status: status, Message: message}
}

// Category names the error category of err, or "unknown".
func Category(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrServer):
		return "server"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	}
	return "unknown"
}

// Retryable reports whether the user should be offered a retry.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrServer)
}

// UserMessage returns the text shown to the user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUserStatsNotFound):
		return "Your stats profile could not be found. Log out and back in, then try again."
	case errors.Is(err, ErrTimeRemaining):
		return "The session still has time remaining. Use force to finish it early."
	case errors.Is(err, ErrCancelNotConfirmed):
		return "Cancel was not confirmed; the session keeps running."
	case errors.Is(err, ErrRequestInFlight):
		return "Another request for this session is still in progress."
	case errors.Is(err, ErrInvalidTransition):
		return "That action is not available right now."
	case errors.Is(err, ErrNoActiveSession):
		return "There is no active session."
	case errors.Is(err, ErrNotAuthenticated):
		return "You are not logged in."
	case errors.Is(err, ErrConflict):
		return "You already have an active session. Refresh to pick it up."
	case errors.Is(err, ErrUnauthorized):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrNetwork):
		return "Could not reach the server. Check your connection and retry."
	case errors.Is(err, ErrServer):
		return "The server had a problem. Please retry in a moment."
	case errors.Is(err, ErrNotFound):
		return "The session no longer exists."
	case errors.Is(err, ErrValidation):
		var ge *GatewayError
		if errors.As(err, &ge) && ge.Message != "" {
			return ge.Message
		}
		return "The request was not valid."
	}
	return err.Error()
}
