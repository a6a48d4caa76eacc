package ports

import "github.com/xvierd/studyx/internal/domain"

// Notifier announces timer and progress milestones to the user.
// This is a driven port (implemented by adapters).
type Notifier interface {
	NotifySessionComplete(session domain.StudySession) error
	NotifyBreakComplete(ended domain.TimerMode) error
	NotifyGoalAchieved(goal domain.StudyGoal) error
}
