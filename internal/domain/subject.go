package domain

import (
	"strings"
	"time"
)

// DefaultSubjectColor is used when a subject is created without a color.
const DefaultSubjectColor = "#3B82F6"

// Subject is something the user studies.
type Subject struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Color            string    `json:"color"`
	Description      string    `json:"description"`
	TotalTimeSeconds int       `json:"totalTime"`
	GoalHours        float64   `json:"goalHours"`
	CreatedAt        time.Time `json:"createdAt"`
	Active           bool      `json:"isActive"`
}

// NewSubject creates an active subject with no recorded time.
func NewSubject(name, description, color string, goalHours float64) (*Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if color == "" {
		color = DefaultSubjectColor
	}
	if goalHours < 0 {
		goalHours = 0
	}
	return &Subject{
		ID:          generateID(),
		Name:        name,
		Color:       color,
		Description: strings.TrimSpace(description),
		GoalHours:   goalHours,
		CreatedAt:   time.Now(),
		Active:      true,
	}, nil
}

// AddTime adjusts the subject's total by delta seconds, never going below zero.
func (s *Subject) AddTime(deltaSeconds int) {
	s.TotalTimeSeconds += deltaSeconds
	if s.TotalTimeSeconds < 0 {
		s.TotalTimeSeconds = 0
	}
}
