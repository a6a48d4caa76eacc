package domain

import (
	"strings"
	"time"
)

// GoalType is the period or scope a goal covers.
type GoalType string

const (
	GoalDaily   GoalType = "daily"
	GoalWeekly  GoalType = "weekly"
	GoalMonthly GoalType = "monthly"
	GoalSubject GoalType = "subject"
)

// GoalUnit is what a goal's target counts.
type GoalUnit string

const (
	UnitHours       GoalUnit = "hours"
	UnitSessions    GoalUnit = "sessions"
	UnitAssignments GoalUnit = "assignments"
)

// StudyGoal is a target the user wants to reach by a deadline.
type StudyGoal struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      GoalType  `json:"type"`
	Target    float64   `json:"target"`
	Current   float64   `json:"current"`
	Unit      GoalUnit  `json:"unit"`
	Deadline  time.Time `json:"deadline"`
	SubjectID string    `json:"subjectId,omitempty"`
	Completed bool      `json:"isCompleted"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewGoal creates a goal with no progress.
func NewGoal(title string, goalType GoalType, target float64, unit GoalUnit, deadline time.Time) (*StudyGoal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	switch goalType {
	case GoalDaily, GoalWeekly, GoalMonthly, GoalSubject:
	default:
		return nil, ErrInvalidGoalType
	}
	switch unit {
	case UnitHours, UnitSessions, UnitAssignments:
	default:
		return nil, ErrInvalidGoalUnit
	}
	if target <= 0 {
		return nil, ErrInvalidTarget
	}
	return &StudyGoal{
		ID:        generateID(),
		Title:     title,
		Type:      goalType,
		Target:    target,
		Unit:      unit,
		Deadline:  deadline,
		CreatedAt: time.Now(),
	}, nil
}

// IsActive reports whether the goal is unfinished and before its deadline.
func (g *StudyGoal) IsActive(now time.Time) bool {
	return !g.Completed && g.Deadline.After(now)
}

// Progress returns completion as a percentage capped at 100.
func (g *StudyGoal) Progress() float64 {
	if g.Target <= 0 {
		return 0
	}
	p := g.Current / g.Target * 100
	if p > 100 {
		return 100
	}
	return p
}

// Record adds progress and marks the goal completed once the target is met.
func (g *StudyGoal) Record(amount float64) {
	g.Current += amount
	if g.Current >= g.Target {
		g.Completed = true
	}
}
