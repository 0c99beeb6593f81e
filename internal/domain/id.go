package domain

import "github.com/google/uuid"

// NewID creates a new unique session identifier.
func NewID() string {
	return uuid.New().String()
}
