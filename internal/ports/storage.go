// Package ports defines the interfaces (driven and driving ports)
// for the StudyX application following hexagonal architecture principles.
// These interfaces define the contracts between the domain layer and
// external infrastructure.
package ports

import (
	"context"
	"time"

	"github.com/xvierd/studyx/internal/domain"
)

// SessionRepository defines the interface for study session persistence.
// This is a driven port (implemented by adapters).
type SessionRepository interface {
	// Save inserts the session or replaces the stored one with the same ID.
	Save(ctx context.Context, session *domain.StudySession) error

	// FindByID retrieves a session by its unique identifier.
	FindByID(ctx context.Context, id string) (*domain.StudySession, error)

	// FindAll returns every session, oldest first.
	FindAll(ctx context.Context) ([]*domain.StudySession, error)

	// FindBySubject returns the sessions recorded for a subject.
	FindBySubject(ctx context.Context, subjectID string) ([]*domain.StudySession, error)

	// FindByDateRange returns sessions that started within [start, end].
	FindByDateRange(ctx context.Context, start, end time.Time) ([]*domain.StudySession, error)

	// Delete removes a session from storage.
	Delete(ctx context.Context, id string) error

	// DeleteBySubject removes every session for a subject.
	DeleteBySubject(ctx context.Context, subjectID string) error
}

// SubjectRepository defines the interface for subject persistence.
// This is a driven port (implemented by adapters).
type SubjectRepository interface {
	// Save inserts the subject or replaces the stored one with the same ID.
	Save(ctx context.Context, subject *domain.Subject) error

	// FindByID retrieves a subject by its unique identifier.
	FindByID(ctx context.Context, id string) (*domain.Subject, error)

	// FindAll returns every subject in creation order.
	FindAll(ctx context.Context) ([]*domain.Subject, error)

	// FindByName does a fuzzy search over subject names, best match first.
	FindByName(ctx context.Context, query string) ([]*domain.Subject, error)

	// Delete removes a subject from storage.
	Delete(ctx context.Context, id string) error
}

// AssignmentRepository defines the interface for assignment persistence.
// This is a driven port (implemented by adapters).
type AssignmentRepository interface {
	Save(ctx context.Context, assignment *domain.Assignment) error
	FindByID(ctx context.Context, id string) (*domain.Assignment, error)
	FindAll(ctx context.Context) ([]*domain.Assignment, error)
	FindBySubject(ctx context.Context, subjectID string) ([]*domain.Assignment, error)

	// FindOverdue returns unfinished assignments due before now.
	FindOverdue(ctx context.Context, now time.Time) ([]*domain.Assignment, error)

	// FindUpcoming returns unfinished assignments due within days of now.
	FindUpcoming(ctx context.Context, now time.Time, days int) ([]*domain.Assignment, error)

	Delete(ctx context.Context, id string) error
	DeleteBySubject(ctx context.Context, subjectID string) error
}

// GoalRepository defines the interface for study goal persistence.
// This is a driven port (implemented by adapters).
type GoalRepository interface {
	Save(ctx context.Context, goal *domain.StudyGoal) error
	FindByID(ctx context.Context, id string) (*domain.StudyGoal, error)
	FindAll(ctx context.Context) ([]*domain.StudyGoal, error)

	// FindActive returns goals that are unfinished and not yet past their deadline.
	FindActive(ctx context.Context, now time.Time) ([]*domain.StudyGoal, error)

	Delete(ctx context.Context, id string) error
}

// Storage is the combined repository interface.
// This is a driven port (implemented by adapters).
type Storage interface {
	// Sessions provides access to study session operations.
	Sessions() SessionRepository

	// Subjects provides access to subject operations.
	Subjects() SubjectRepository

	// Assignments provides access to assignment operations.
	Assignments() AssignmentRepository

	// Goals provides access to goal operations.
	Goals() GoalRepository

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate() error
}
