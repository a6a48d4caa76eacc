// Package services implements the application layer (use cases)
// following hexagonal architecture principles.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/ports"
)

// DefaultUpcomingLimit is how many assignments UpcomingAssignments returns
// when no limit is given.
const DefaultUpcomingLimit = 5

// StudyService handles subjects, sessions, assignments and goals. It keeps
// each subject's total study time in step with its sessions.
type StudyService struct {
	storage ports.Storage
	log     *zap.Logger
	now     func() time.Time
}

// NewStudyService creates a new study service.
func NewStudyService(storage ports.Storage, log *zap.Logger) *StudyService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StudyService{storage: storage, log: log, now: time.Now}
}

// SetClock replaces the time source used for due dates and goal deadlines.
func (s *StudyService) SetClock(now func() time.Time) {
	s.now = now
}

// ---- subjects ----

// AddSubjectRequest contains the data needed to create a subject.
type AddSubjectRequest struct {
	Name        string
	Description string
	Color       string
	GoalHours   float64
}

// AddSubject creates a new subject.
func (s *StudyService) AddSubject(ctx context.Context, req AddSubjectRequest) (*domain.Subject, error) {
	subject, err := domain.NewSubject(req.Name, req.Description, req.Color, req.GoalHours)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	subject.CreatedAt = s.now()

	if err := s.storage.Subjects().Save(ctx, subject); err != nil {
		return nil, fmt.Errorf("failed to save subject: %w", err)
	}

	s.log.Info("subject added", zap.String("subject_id", subject.ID), zap.String("name", subject.Name))
	return subject, nil
}

// UpdateSubject stores changes to an existing subject and renames it on
// the sessions and assignments that carry its name.
func (s *StudyService) UpdateSubject(ctx context.Context, subject *domain.Subject) error {
	if strings.TrimSpace(subject.Name) == "" {
		return domain.ErrEmptyName
	}
	old, err := s.storage.Subjects().FindByID(ctx, subject.ID)
	if err != nil {
		return fmt.Errorf("failed to find subject: %w", err)
	}
	if err := s.storage.Subjects().Save(ctx, subject); err != nil {
		return fmt.Errorf("failed to save subject: %w", err)
	}
	if old.Name == subject.Name {
		return nil
	}

	sessions, err := s.storage.Sessions().FindBySubject(ctx, subject.ID)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	for _, session := range sessions {
		session.Subject = subject.Name
		if err := s.storage.Sessions().Save(ctx, session); err != nil {
			return fmt.Errorf("failed to rename subject on session: %w", err)
		}
	}

	assignments, err := s.storage.Assignments().FindBySubject(ctx, subject.ID)
	if err != nil {
		return fmt.Errorf("failed to load assignments: %w", err)
	}
	for _, a := range assignments {
		a.Subject = subject.Name
		if err := s.storage.Assignments().Save(ctx, a); err != nil {
			return fmt.Errorf("failed to rename subject on assignment: %w", err)
		}
	}
	return nil
}

// DeleteSubject removes a subject together with its sessions and assignments.
func (s *StudyService) DeleteSubject(ctx context.Context, id string) error {
	if _, err := s.storage.Subjects().FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.storage.Sessions().DeleteBySubject(ctx, id); err != nil {
		return fmt.Errorf("failed to delete subject sessions: %w", err)
	}
	if err := s.storage.Assignments().DeleteBySubject(ctx, id); err != nil {
		return fmt.Errorf("failed to delete subject assignments: %w", err)
	}
	if err := s.storage.Subjects().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete subject: %w", err)
	}

	s.log.Info("subject deleted", zap.String("subject_id", id))
	return nil
}

// ListSubjects returns every subject in creation order.
func (s *StudyService) ListSubjects(ctx context.Context) ([]*domain.Subject, error) {
	return s.storage.Subjects().FindAll(ctx)
}

// GetSubject retrieves a single subject by ID.
func (s *StudyService) GetSubject(ctx context.Context, id string) (*domain.Subject, error) {
	return s.storage.Subjects().FindByID(ctx, id)
}

// ResolveSubject finds a subject by ID, by exact name (ignoring case) or by
// a fuzzy name match that selects exactly one subject.
func (s *StudyService) ResolveSubject(ctx context.Context, idOrName string) (*domain.Subject, error) {
	idOrName = strings.TrimSpace(idOrName)
	if idOrName == "" {
		return nil, domain.ErrSubjectNotFound
	}

	subject, err := s.storage.Subjects().FindByID(ctx, idOrName)
	if err == nil {
		return subject, nil
	}
	if !errors.Is(err, domain.ErrSubjectNotFound) {
		return nil, err
	}

	matches, err := s.storage.Subjects().FindByName(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if strings.EqualFold(m.Name, idOrName) {
			return m, nil
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", domain.ErrSubjectNotFound, idOrName)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return nil, fmt.Errorf("%w: %q could be %s", domain.ErrAmbiguousSubject, idOrName, strings.Join(names, ", "))
	}
}

// ---- sessions ----

// LogSessionRequest contains the data for a session logged by hand.
type LogSessionRequest struct {
	// Subject is a subject ID or name.
	Subject   string
	Duration  time.Duration
	Notes     string
	StartedAt time.Time
}

// LogSession records a completed study session after the fact. A zero
// StartedAt means the session just ended.
func (s *StudyService) LogSession(ctx context.Context, req LogSessionRequest) (*domain.StudySession, error) {
	subject, err := s.ResolveSubject(ctx, req.Subject)
	if err != nil {
		return nil, err
	}

	started := req.StartedAt
	if started.IsZero() {
		started = s.now().Add(-req.Duration)
	}
	session, err := domain.NewManualSession(subject.ID, req.Duration, req.Notes, started)
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}

	if _, err := s.AddSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// AddSession stores a session, adds its duration to the subject total and
// records progress on matching goals. It returns the goals the session
// completed.
func (s *StudyService) AddSession(ctx context.Context, session *domain.StudySession) ([]*domain.StudyGoal, error) {
	if session.ID == "" {
		session.ID = domain.NewID()
	}
	if session.DurationSeconds < 0 {
		return nil, domain.ErrInvalidDuration
	}

	subject, err := s.lookupSubject(ctx, session.SubjectID)
	if err != nil {
		return nil, err
	}
	if subject != nil && session.Subject == "" {
		session.Subject = subject.Name
	}

	if err := s.storage.Sessions().Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	if subject != nil && session.Completed {
		subject.AddTime(session.DurationSeconds)
		if err := s.storage.Subjects().Save(ctx, subject); err != nil {
			return nil, fmt.Errorf("failed to update subject total: %w", err)
		}
	}

	achieved, err := s.recordGoalProgress(ctx, session)
	if err != nil {
		return nil, err
	}

	s.log.Info("session recorded",
		zap.String("session_id", session.ID),
		zap.String("subject_id", session.SubjectID),
		zap.Int("duration", session.DurationSeconds))
	return achieved, nil
}

// UpdateSession stores changes to a session, moving the time between
// subject totals when the duration or subject changed.
func (s *StudyService) UpdateSession(ctx context.Context, session *domain.StudySession) error {
	old, err := s.storage.Sessions().FindByID(ctx, session.ID)
	if err != nil {
		return err
	}
	if session.DurationSeconds < 0 {
		return domain.ErrInvalidDuration
	}

	if err := s.adjustSubjectTime(ctx, old.SubjectID, -countedSeconds(old)); err != nil {
		return err
	}
	if err := s.adjustSubjectTime(ctx, session.SubjectID, countedSeconds(session)); err != nil {
		return err
	}

	if err := s.storage.Sessions().Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteSession removes a session and takes its time off the subject total.
func (s *StudyService) DeleteSession(ctx context.Context, id string) error {
	session, err := s.storage.Sessions().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Sessions().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return s.adjustSubjectTime(ctx, session.SubjectID, -countedSeconds(session))
}

// GetSession retrieves a single session by ID.
func (s *StudyService) GetSession(ctx context.Context, id string) (*domain.StudySession, error) {
	return s.storage.Sessions().FindByID(ctx, id)
}

// ListSessions returns every session, oldest first.
func (s *StudyService) ListSessions(ctx context.Context) ([]*domain.StudySession, error) {
	return s.storage.Sessions().FindAll(ctx)
}

// SessionsBySubject returns the sessions recorded for one subject.
func (s *StudyService) SessionsBySubject(ctx context.Context, subjectID string) ([]*domain.StudySession, error) {
	return s.storage.Sessions().FindBySubject(ctx, subjectID)
}

// SessionsInRange returns the sessions started within [start, end].
func (s *StudyService) SessionsInRange(ctx context.Context, start, end time.Time) ([]*domain.StudySession, error) {
	return s.storage.Sessions().FindByDateRange(ctx, start, end)
}

// RecentSessions returns up to limit sessions, newest first.
func (s *StudyService) RecentSessions(ctx context.Context, limit int) ([]*domain.StudySession, error) {
	sessions, err := s.storage.Sessions().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// ---- assignments ----

// AddAssignmentRequest contains the data needed to create an assignment.
type AddAssignmentRequest struct {
	Title       string
	Description string
	// Subject is a subject ID or name.
	Subject        string
	DueDate        time.Time
	Priority       string
	EstimatedHours float64
}

// AddAssignment creates an assignment for an existing subject.
func (s *StudyService) AddAssignment(ctx context.Context, req AddAssignmentRequest) (*domain.Assignment, error) {
	subject, err := s.ResolveSubject(ctx, req.Subject)
	if err != nil {
		return nil, err
	}
	priority, err := domain.ParsePriority(req.Priority)
	if err != nil {
		return nil, fmt.Errorf("invalid assignment: %w", err)
	}

	a, err := domain.NewAssignment(req.Title, subject.ID, req.DueDate, priority)
	if err != nil {
		return nil, fmt.Errorf("invalid assignment: %w", err)
	}
	a.Subject = subject.Name
	a.Description = strings.TrimSpace(req.Description)
	a.EstimatedHours = req.EstimatedHours
	a.CreatedAt = s.now()

	if err := s.storage.Assignments().Save(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save assignment: %w", err)
	}

	s.log.Info("assignment added", zap.String("assignment_id", a.ID), zap.String("subject", a.Subject))
	return a, nil
}

// UpdateAssignment stores changes to an existing assignment.
func (s *StudyService) UpdateAssignment(ctx context.Context, a *domain.Assignment) error {
	if _, err := s.storage.Assignments().FindByID(ctx, a.ID); err != nil {
		return err
	}
	if strings.TrimSpace(a.Title) == "" {
		return domain.ErrEmptyTitle
	}
	if err := s.storage.Assignments().Save(ctx, a); err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}

// CompleteAssignment marks an assignment done and counts it toward
// assignment goals. Completing a finished assignment changes nothing.
func (s *StudyService) CompleteAssignment(ctx context.Context, id string) (*domain.Assignment, []*domain.StudyGoal, error) {
	a, err := s.storage.Assignments().FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if a.IsCompleted() {
		return a, nil, nil
	}

	a.Complete(s.now())
	if err := s.storage.Assignments().Save(ctx, a); err != nil {
		return nil, nil, fmt.Errorf("failed to save assignment: %w", err)
	}

	achieved, err := s.recordGoals(ctx, a.SubjectID, domain.UnitAssignments, 1)
	if err != nil {
		return nil, nil, err
	}
	return a, achieved, nil
}

// DeleteAssignment removes an assignment.
func (s *StudyService) DeleteAssignment(ctx context.Context, id string) error {
	return s.storage.Assignments().Delete(ctx, id)
}

// ListAssignments returns all assignments, or those of one subject when
// subjectID is set.
func (s *StudyService) ListAssignments(ctx context.Context, subjectID string) ([]*domain.Assignment, error) {
	if subjectID != "" {
		return s.storage.Assignments().FindBySubject(ctx, subjectID)
	}
	return s.storage.Assignments().FindAll(ctx)
}

// UpcomingAssignments returns the unfinished assignments with the nearest
// due dates, at most limit of them.
func (s *StudyService) UpcomingAssignments(ctx context.Context, limit int) ([]*domain.Assignment, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	all, err := s.storage.Assignments().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	var open []*domain.Assignment
	for _, a := range all {
		if !a.IsCompleted() {
			open = append(open, a)
		}
	}
	sort.SliceStable(open, func(i, j int) bool { return open[i].DueDate.Before(open[j].DueDate) })
	if len(open) > limit {
		open = open[:limit]
	}
	return open, nil
}

// DueSoon returns unfinished assignments due within days.
func (s *StudyService) DueSoon(ctx context.Context, days int) ([]*domain.Assignment, error) {
	return s.storage.Assignments().FindUpcoming(ctx, s.now(), days)
}

// OverdueAssignments returns unfinished assignments past their due date.
func (s *StudyService) OverdueAssignments(ctx context.Context) ([]*domain.Assignment, error) {
	return s.storage.Assignments().FindOverdue(ctx, s.now())
}

// ---- goals ----

// AddGoalRequest contains the data needed to create a goal.
type AddGoalRequest struct {
	Title    string
	Type     domain.GoalType
	Target   float64
	Unit     domain.GoalUnit
	Deadline time.Time
	// Subject optionally limits the goal to one subject (ID or name).
	Subject string
}

// AddGoal creates a study goal.
func (s *StudyService) AddGoal(ctx context.Context, req AddGoalRequest) (*domain.StudyGoal, error) {
	goal, err := domain.NewGoal(req.Title, req.Type, req.Target, req.Unit, req.Deadline)
	if err != nil {
		return nil, fmt.Errorf("invalid goal: %w", err)
	}
	goal.CreatedAt = s.now()

	if req.Subject != "" {
		subject, err := s.ResolveSubject(ctx, req.Subject)
		if err != nil {
			return nil, err
		}
		goal.SubjectID = subject.ID
	}

	if err := s.storage.Goals().Save(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to save goal: %w", err)
	}
	return goal, nil
}

// UpdateGoal stores changes to an existing goal.
func (s *StudyService) UpdateGoal(ctx context.Context, goal *domain.StudyGoal) error {
	if _, err := s.storage.Goals().FindByID(ctx, goal.ID); err != nil {
		return err
	}
	if goal.Target <= 0 {
		return domain.ErrInvalidTarget
	}
	goal.Completed = goal.Current >= goal.Target
	if err := s.storage.Goals().Save(ctx, goal); err != nil {
		return fmt.Errorf("failed to save goal: %w", err)
	}
	return nil
}

// DeleteGoal removes a goal.
func (s *StudyService) DeleteGoal(ctx context.Context, id string) error {
	return s.storage.Goals().Delete(ctx, id)
}

// ListGoals returns every goal.
func (s *StudyService) ListGoals(ctx context.Context) ([]*domain.StudyGoal, error) {
	return s.storage.Goals().FindAll(ctx)
}

// ActiveGoals returns unfinished goals whose deadline has not passed.
func (s *StudyService) ActiveGoals(ctx context.Context) ([]*domain.StudyGoal, error) {
	return s.storage.Goals().FindActive(ctx, s.now())
}

// ---- helpers ----

func (s *StudyService) lookupSubject(ctx context.Context, id string) (*domain.Subject, error) {
	if id == "" {
		return nil, nil
	}
	subject, err := s.storage.Subjects().FindByID(ctx, id)
	if errors.Is(err, domain.ErrSubjectNotFound) {
		// Sessions may outlive their subject through imports.
		s.log.Warn("session references unknown subject", zap.String("subject_id", id))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subject: %w", err)
	}
	return subject, nil
}

func (s *StudyService) adjustSubjectTime(ctx context.Context, subjectID string, delta int) error {
	if delta == 0 {
		return nil
	}
	subject, err := s.lookupSubject(ctx, subjectID)
	if err != nil || subject == nil {
		return err
	}
	subject.AddTime(delta)
	if err := s.storage.Subjects().Save(ctx, subject); err != nil {
		return fmt.Errorf("failed to update subject total: %w", err)
	}
	return nil
}

func (s *StudyService) recordGoalProgress(ctx context.Context, session *domain.StudySession) ([]*domain.StudyGoal, error) {
	if !session.Completed || session.Type != domain.SessionTypeFocus {
		return nil, nil
	}
	hours, err := s.recordGoals(ctx, session.SubjectID, domain.UnitHours, session.Duration().Hours())
	if err != nil {
		return nil, err
	}
	count, err := s.recordGoals(ctx, session.SubjectID, domain.UnitSessions, 1)
	if err != nil {
		return nil, err
	}
	return append(hours, count...), nil
}

// recordGoals adds amount to every active goal counting unit that applies
// to subjectID, returning the goals that reached their target.
func (s *StudyService) recordGoals(ctx context.Context, subjectID string, unit domain.GoalUnit, amount float64) ([]*domain.StudyGoal, error) {
	goals, err := s.storage.Goals().FindActive(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}

	var achieved []*domain.StudyGoal
	for _, g := range goals {
		if g.Unit != unit || (g.SubjectID != "" && g.SubjectID != subjectID) {
			continue
		}
		g.Record(amount)
		if err := s.storage.Goals().Save(ctx, g); err != nil {
			return nil, fmt.Errorf("failed to update goal: %w", err)
		}
		if g.Completed {
			s.log.Info("goal achieved", zap.String("goal_id", g.ID), zap.String("title", g.Title))
			achieved = append(achieved, g)
		}
	}
	return achieved, nil
}

// countedSeconds is the part of a session that counts toward its subject.
func countedSeconds(session *domain.StudySession) int {
	if !session.Completed {
		return 0
	}
	return session.DurationSeconds
}
