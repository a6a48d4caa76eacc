// Package domain contains the core business entities for StudyX.
// These entities represent the fundamental concepts of study tracking
// (subjects, sessions, assignments and goals) and are independent of any
// external frameworks or infrastructure.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors.
var (
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrGoalNotFound       = errors.New("goal not found")
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidGoalType    = errors.New("invalid goal type")
	ErrInvalidGoalUnit    = errors.New("invalid goal unit")
	ErrInvalidTarget      = errors.New("goal target must be positive")
	ErrAmbiguousSubject   = errors.New("subject name matches more than one subject")

	// ErrInvalidConfiguration is matched by every ConfigurationError.
	ErrInvalidConfiguration = errors.New("invalid timer configuration")
)

// ConfigurationError reports which timer settings were rejected.
type ConfigurationError struct {
	Fields []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s must be positive", ErrInvalidConfiguration, strings.Join(e.Fields, ", "))
}

// Is makes errors.Is(err, ErrInvalidConfiguration) hold for any ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}
