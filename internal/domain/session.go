package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar-day stamp stored on every session.
const DateLayout = "2006-01-02"

// SessionType mirrors the timer mode that produced a session.
type SessionType string

const (
	SessionTypeFocus     SessionType = "focus"
	SessionTypeBreak     SessionType = "break"
	SessionTypeLongBreak SessionType = "long-break"
)

// StudySession is one recorded block of study time.
type StudySession struct {
	ID              string      `json:"id"`
	Subject         string      `json:"subject"`
	SubjectID       string      `json:"subjectId"`
	DurationSeconds int         `json:"duration"`
	StartTime       time.Time   `json:"startTime"`
	EndTime         *time.Time  `json:"endTime"`
	Notes           string      `json:"notes"`
	Date            string      `json:"date"`
	Completed       bool        `json:"isCompleted"`
	Type            SessionType `json:"type"`
	GitBranch       string      `json:"gitBranch,omitempty"`
	GitCommit       string      `json:"gitCommit,omitempty"`
}

// NewManualSession builds a completed focus session logged after the fact.
// The session is assumed to have ended at started+duration.
func NewManualSession(subjectID string, duration time.Duration, notes string, started time.Time) (*StudySession, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	end := started.Add(duration)
	return &StudySession{
		ID:              generateID(),
		SubjectID:       subjectID,
		DurationSeconds: int(duration / time.Second),
		StartTime:       started,
		EndTime:         &end,
		Notes:           strings.TrimSpace(notes),
		Date:            started.Format(DateLayout),
		Completed:       true,
		Type:            SessionTypeFocus,
	}, nil
}

// Duration returns the recorded length as a time.Duration.
func (s *StudySession) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

// Day parses the session's date stamp in the given location.
func (s *StudySession) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s.Date, loc)
}

// SetGitContext stores the study workspace revision for the session.
func (s *StudySession) SetGitContext(branch, commit string) {
	s.GitBranch = branch
	s.GitCommit = commit
}
