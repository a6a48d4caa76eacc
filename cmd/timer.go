package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xvierd/studyx/internal/adapters/tui"
	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/services"
)

var (
	timerSubject string
	timerNotes   string
)

// timerCmd opens the interactive pomodoro screen.
var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Open the pomodoro timer",
	Long: `Open the interactive pomodoro timer. Finished focus periods are saved
as study sessions for the selected subject.

Keys: s start, p pause/resume, x stop, n skip, r reset, c change subject, q quit.`,
	Args: cobra.NoArgs,
	RunE: runTimer,
}

func init() {
	timerCmd.Flags().StringVarP(&timerSubject, "subject", "s", "", "Subject ID or name to study (default: user.default_subject)")
	timerCmd.Flags().StringVarP(&timerNotes, "notes", "n", "", "Notes attached to recorded sessions")
}

func runTimer(cmd *cobra.Command, args []string) error {
	ctx, stop := setupSignalHandler()
	defer stop()

	svc, err := newTimerService()
	if err != nil {
		return err
	}

	subjects, err := app.study.ListSubjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subjects: %w", err)
	}

	if err := selectInitialSubject(ctx, svc, subjects); err != nil {
		return err
	}
	svc.SetNotes(timerNotes)

	remindDueAssignments(ctx)

	return tui.Run(ctx, svc, subjects, &app.config.Theme)
}

// newTimerService builds the timer from the loaded config. Git context is
// attached only when enabled and the workspace is a repository.
func newTimerService() (*services.TimerService, error) {
	cfg := app.config
	opts := services.TimerOptions{
		Config:             cfg.ToTimerConfig(),
		AutoStartBreaks:    cfg.Timer.AutoStartBreaks,
		AutoStartPomodoros: cfg.Timer.AutoStartPomodoros,
		Notifier:           app.notifier,
		Logger:             app.log,
	}

	if cfg.Git.Enabled {
		workspace := cfg.Git.Workspace
		if workspace == "" {
			workspace, _ = os.Getwd()
		}
		if app.git.IsAvailable(workspace) {
			opts.Git = app.git
			opts.Workspace = workspace
		} else {
			app.log.Debug("study workspace is not a git repository", zap.String("workspace", workspace))
		}
	}

	return services.NewTimerService(app.study, opts)
}

// selectInitialSubject applies --subject, then user.default_subject, then the
// only subject when there is exactly one.
func selectInitialSubject(ctx context.Context, svc *services.TimerService, subjects []*domain.Subject) error {
	choice := timerSubject
	if choice == "" {
		choice = app.config.User.DefaultSubject
	}

	if choice != "" {
		if _, err := svc.SelectSubject(ctx, choice); err != nil {
			if timerSubject == "" && errors.Is(err, domain.ErrSubjectNotFound) {
				app.log.Warn("default subject not found", zap.String("subject", choice))
				return nil
			}
			return fmt.Errorf("failed to select subject: %w", err)
		}
		return nil
	}

	if len(subjects) == 1 {
		if _, err := svc.SelectSubject(ctx, subjects[0].ID); err != nil {
			return fmt.Errorf("failed to select subject: %w", err)
		}
	}
	return nil
}

// remindDueAssignments sends one desktop notification for work due today or
// tomorrow.
func remindDueAssignments(ctx context.Context) {
	due, err := app.study.DueSoon(ctx, 1)
	if err != nil || len(due) == 0 {
		return
	}
	list := make([]domain.Assignment, 0, len(due))
	for _, a := range due {
		list = append(list, *a)
	}
	if err := app.notifier.NotifyAssignmentsDue(list); err != nil {
		app.log.Warn("assignment reminder failed", zap.Error(err))
	}
}
