package services

import (
	"context"
	"time"

	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/ports"
)

// StateService implements the MCPStateProvider interface.
type StateService struct {
	study *StudyService
	stats *StatsService
}

// NewStateService creates a new state service.
func NewStateService(study *StudyService, stats *StatsService) *StateService {
	return &StateService{study: study, stats: stats}
}

// ListSubjects implements ports.MCPStateProvider.
func (s *StateService) ListSubjects(ctx context.Context) ([]domain.SubjectProgress, error) {
	return s.stats.SubjectProgress(ctx)
}

// RecentSessions implements ports.MCPStateProvider.
func (s *StateService) RecentSessions(ctx context.Context, limit int) ([]*domain.StudySession, error) {
	return s.study.RecentSessions(ctx, limit)
}

// Stats implements ports.MCPStateProvider.
func (s *StateService) Stats(ctx context.Context) (*domain.StudyStats, error) {
	return s.stats.Overview(ctx)
}

// UpcomingAssignments implements ports.MCPStateProvider.
func (s *StateService) UpcomingAssignments(ctx context.Context, limit int) ([]*domain.Assignment, error) {
	return s.study.UpcomingAssignments(ctx, limit)
}

// LogSession implements ports.MCPStateProvider.
func (s *StateService) LogSession(ctx context.Context, subject string, minutes int, notes string) (*domain.StudySession, error) {
	return s.study.LogSession(ctx, LogSessionRequest{
		Subject:  subject,
		Duration: time.Duration(minutes) * time.Minute,
		Notes:    notes,
	})
}

// CompleteAssignment implements ports.MCPStateProvider.
func (s *StateService) CompleteAssignment(ctx context.Context, id string) (*domain.Assignment, error) {
	a, _, err := s.study.CompleteAssignment(ctx, id)
	return a, err
}

// Ensure StateService implements MCPStateProvider.
var _ ports.MCPStateProvider = (*StateService)(nil)
