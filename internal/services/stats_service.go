package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/ports"
)

// Dashboard is everything the stats view shows at once.
type Dashboard struct {
	Stats    domain.StudyStats        `json:"stats"`
	Subjects []domain.SubjectProgress `json:"subjects"`
	Week     []domain.DayTotal        `json:"week"`
	Upcoming []*domain.Assignment     `json:"upcoming"`
	Overdue  []*domain.Assignment     `json:"overdue"`
	Goals    []*domain.StudyGoal      `json:"goals"`
}

// StatsService computes study analytics over the stored collections.
type StatsService struct {
	storage   ports.Storage
	weekStart time.Weekday
	now       func() time.Time
}

// NewStatsService creates a new stats service. Weeks start on Monday.
func NewStatsService(storage ports.Storage) *StatsService {
	return &StatsService{storage: storage, weekStart: time.Monday, now: time.Now}
}

// SetWeekStart sets the first day of the week for weekly breakdowns.
func (s *StatsService) SetWeekStart(day time.Weekday) {
	s.weekStart = day
}

// SetClock replaces the time source.
func (s *StatsService) SetClock(now func() time.Time) {
	s.now = now
}

// Overview returns the headline figures.
func (s *StatsService) Overview(ctx context.Context) (*domain.StudyStats, error) {
	sessions, err := s.storage.Sessions().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	subjects, err := s.storage.Subjects().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load subjects: %w", err)
	}
	assignments, err := s.storage.Assignments().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	goals, err := s.storage.Goals().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}

	stats := domain.ComputeStats(sessions, subjects, assignments, goals, s.now())
	return &stats, nil
}

// SubjectProgress returns per-subject totals against their goal hours.
func (s *StatsService) SubjectProgress(ctx context.Context) ([]domain.SubjectProgress, error) {
	subjects, err := s.storage.Subjects().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load subjects: %w", err)
	}
	sessions, err := s.storage.Sessions().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return domain.ComputeSubjectProgress(subjects, sessions), nil
}

// Week returns the day totals of the current week.
func (s *StatsService) Week(ctx context.Context) ([]domain.DayTotal, error) {
	now := s.now()
	start := domain.WeekStart(now, s.weekStart)
	sessions, err := s.storage.Sessions().FindByDateRange(ctx, start, start.AddDate(0, 0, 7).Add(-time.Nanosecond))
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return domain.WeeklyBreakdown(sessions, now, s.weekStart), nil
}

// Dashboard gathers all figures for the stats view.
func (s *StatsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	stats, err := s.Overview(ctx)
	if err != nil {
		return nil, err
	}
	subjects, err := s.SubjectProgress(ctx)
	if err != nil {
		return nil, err
	}
	week, err := s.Week(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	upcoming, err := s.storage.Assignments().FindUpcoming(ctx, now, 7)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	overdue, err := s.storage.Assignments().FindOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	goals, err := s.storage.Goals().FindActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}

	return &Dashboard{
		Stats:    *stats,
		Subjects: subjects,
		Week:     week,
		Upcoming: upcoming,
		Overdue:  overdue,
		Goals:    goals,
	}, nil
}
