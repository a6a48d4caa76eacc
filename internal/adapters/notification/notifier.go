// Package notification provides desktop notifications for finished study
// sessions and breaks.
package notification

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/xvierd/studyx/internal/config"
	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/ports"
)

// SendFunc delivers one notification.
type SendFunc func(title, message string) error

// Notifier sends desktop notifications according to the user's settings.
type Notifier struct {
	cfg   config.NotificationConfig
	send  SendFunc
	alert SendFunc
}

var _ ports.Notifier = (*Notifier)(nil)

// New creates a notifier with the given configuration.
func New(cfg config.NotificationConfig) *Notifier {
	return &Notifier{
		cfg:   cfg,
		send:  func(title, message string) error { return beeep.Notify(title, message, "") },
		alert: func(title, message string) error { return beeep.Alert(title, message, "") },
	}
}

// NewWithSender creates a notifier that delivers through send for both
// silent and audible notifications.
func NewWithSender(cfg config.NotificationConfig, send SendFunc) *Notifier {
	return &Notifier{cfg: cfg, send: send, alert: send}
}

// Notify displays a notification if notifications are enabled.
func (n *Notifier) Notify(title, message string) error {
	if !n.cfg.Enabled {
		return nil
	}
	if n.cfg.Sound {
		return n.alert(title, message)
	}
	return n.send(title, message)
}

// NotifySessionComplete announces a finished focus session.
func (n *Notifier) NotifySessionComplete(session domain.StudySession) error {
	if !n.cfg.Sessions {
		return nil
	}
	subject := session.Subject
	if subject == "" {
		subject = "your subject"
	}
	return n.Notify("📚 Study session complete!",
		fmt.Sprintf("Great job! %s of %s logged. Time for a break.",
			domain.FormatDuration(session.DurationSeconds), subject))
}

// NotifyBreakComplete announces the end of a break.
func (n *Notifier) NotifyBreakComplete(ended domain.TimerMode) error {
	if !n.cfg.Breaks {
		return nil
	}
	return n.Notify("☕ Break over!",
		fmt.Sprintf("Your %s is complete. Ready to focus?", ended.Label()))
}

// NotifyGoalAchieved announces a goal reaching its target.
func (n *Notifier) NotifyGoalAchieved(goal domain.StudyGoal) error {
	if !n.cfg.Goals {
		return nil
	}
	return n.Notify("🎯 Goal achieved!", fmt.Sprintf("You reached %q.", goal.Title))
}

// NotifyAssignmentsDue reminds about assignments that are due soon.
func (n *Notifier) NotifyAssignmentsDue(assignments []domain.Assignment) error {
	if !n.cfg.Assignments || len(assignments) == 0 {
		return nil
	}
	msg := fmt.Sprintf("%q is due %s.", assignments[0].Title, assignments[0].DueDate.Format("Mon Jan 2"))
	if len(assignments) > 1 {
		msg = fmt.Sprintf("%s %d more due soon.", msg, len(assignments)-1)
	}
	return n.Notify("📝 Assignments due", msg)
}

// IsEnabled returns true if notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n.cfg.Enabled
}
