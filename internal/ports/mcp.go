package ports

import (
	"context"

	"github.com/xvierd/studyx/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start serves MCP requests until ctx is cancelled or the transport closes.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// MCPStateProvider exposes study data to the MCP server.
// This is a driven port (implemented by services layer).
type MCPStateProvider interface {
	// ListSubjects returns every subject with its progress.
	ListSubjects(ctx context.Context) ([]domain.SubjectProgress, error)

	// RecentSessions returns the most recent sessions, newest first.
	RecentSessions(ctx context.Context, limit int) ([]*domain.StudySession, error)

	// Stats returns the dashboard figures.
	Stats(ctx context.Context) (*domain.StudyStats, error)

	// UpcomingAssignments returns unfinished assignments ordered by due date.
	UpcomingAssignments(ctx context.Context, limit int) ([]*domain.Assignment, error)

	// LogSession records a manually entered session for the named or
	// identified subject.
	LogSession(ctx context.Context, subject string, minutes int, notes string) (*domain.StudySession, error)

	// CompleteAssignment marks an assignment as done.
	CompleteAssignment(ctx context.Context, id string) (*domain.Assignment, error)
}
