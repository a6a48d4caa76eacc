package domain

import (
	"strings"
	"time"
)

// Priority ranks how urgent an assignment is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority validates a user-supplied priority. Empty means medium.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	default:
		return "", ErrInvalidPriority
	}
}

// AssignmentStatus is the lifecycle state of an assignment.
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentInProgress AssignmentStatus = "in-progress"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentOverdue    AssignmentStatus = "overdue"
)

// Assignment is a piece of coursework with a due date.
type Assignment struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	SubjectID      string           `json:"subjectId"`
	Subject        string           `json:"subject"`
	DueDate        time.Time        `json:"dueDate"`
	Priority       Priority         `json:"priority"`
	Status         AssignmentStatus `json:"status"`
	EstimatedHours float64          `json:"estimatedTime"`
	ActualSeconds  int              `json:"actualTime"`
	CreatedAt      time.Time        `json:"createdAt"`
	CompletedAt    *time.Time       `json:"completedAt"`
}

// NewAssignment creates a pending assignment. The subject name is filled in
// by the caller that owns subject lookup.
func NewAssignment(title, subjectID string, due time.Time, priority Priority) (*Assignment, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if priority == "" {
		priority = PriorityMedium
	}
	return &Assignment{
		ID:        generateID(),
		Title:     title,
		SubjectID: subjectID,
		DueDate:   due,
		Priority:  priority,
		Status:    AssignmentPending,
		CreatedAt: time.Now(),
	}, nil
}

// Complete marks the assignment as done.
func (a *Assignment) Complete(now time.Time) {
	a.Status = AssignmentCompleted
	a.CompletedAt = &now
}

// IsCompleted reports whether the assignment is done.
func (a *Assignment) IsCompleted() bool {
	return a.Status == AssignmentCompleted
}

// IsOverdue reports whether the assignment is unfinished past its due date.
func (a *Assignment) IsOverdue(now time.Time) bool {
	return !a.IsCompleted() && a.DueDate.Before(now)
}

// IsDueWithin reports whether an unfinished assignment falls due in [now, now+days].
func (a *Assignment) IsDueWithin(now time.Time, days int) bool {
	if a.IsCompleted() {
		return false
	}
	limit := now.AddDate(0, 0, days)
	return !a.DueDate.Before(now) && !a.DueDate.After(limit)
}
