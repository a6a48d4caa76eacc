package domain

import "github.com/google/uuid"

// generateID creates a new unique identifier for any stored entity.
func generateID() string {
	return uuid.New().String()
}

// NewID returns a fresh identifier. The timer engine uses it for sessions
// it creates outside this package.
func NewID() string {
	return generateID()
}
