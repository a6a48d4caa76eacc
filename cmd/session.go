package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/services"
)

var (
	sessionMinutes int
	sessionNotes   string
	sessionAt      string
	sessionLimit   int
	sessionSubject string

	editMinutes int
	editNotes   string
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "Log and review study sessions",
}

var sessionLogCmd = &cobra.Command{
	Use:   "log [subject]",
	Short: "Record a session studied away from the timer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var started time.Time
		if sessionAt != "" {
			t, err := time.ParseInLocation("2006-01-02 15:04", sessionAt, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --at %q (use \"YYYY-MM-DD HH:MM\")", sessionAt)
			}
			started = t
		}

		session, err := app.study.LogSession(context.Background(), services.LogSessionRequest{
			Subject:   args[0],
			Duration:  time.Duration(sessionMinutes) * time.Minute,
			Notes:     sessionNotes,
			StartedAt: started,
		})
		if err != nil {
			return fmt.Errorf("failed to log session: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, session)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Logged %s of %s (ID: %s)\n",
			formatMinutes(session.Duration()), session.Subject, shortID(session.ID))
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var (
			sessions []*domain.StudySession
			err      error
		)
		if sessionSubject != "" {
			subject, rerr := app.study.ResolveSubject(ctx, sessionSubject)
			if rerr != nil {
				return rerr
			}
			sessions, err = app.study.SessionsBySubject(ctx, subject.ID)
			sessions = newestFirst(sessions, sessionLimit)
		} else {
			sessions, err = app.study.RecentSessions(ctx, sessionLimit)
		}
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{
				"sessions": sessions,
				"count":    len(sessions),
			})
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions recorded.")
			return nil
		}

		fmt.Fprintf(out, "🕒 Sessions (%d):\n\n", len(sessions))
		for _, s := range sessions {
			fmt.Fprintf(out, "%s %s  %-20s %6s  (ID: %s)\n",
				s.Date, s.StartTime.Local().Format("15:04"), s.Subject,
				domain.FormatDuration(s.DurationSeconds), shortID(s.ID))
			if s.Notes != "" {
				fmt.Fprintf(out, "   %s\n", s.Notes)
			}
			if s.GitBranch != "" {
				fmt.Fprintf(out, "   git: %s (%s)\n", s.GitBranch, s.GitCommit)
			}
		}
		return nil
	},
}

var sessionEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Change the length or notes of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		id, err := findSessionID(ctx, args[0])
		if err != nil {
			return err
		}
		session, err := app.study.GetSession(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to find session: %w", err)
		}

		if cmd.Flags().Changed("minutes") {
			if editMinutes <= 0 {
				return domain.ErrInvalidDuration
			}
			session.DurationSeconds = editMinutes * 60
			end := session.StartTime.Add(session.Duration())
			session.EndTime = &end
		}
		if cmd.Flags().Changed("notes") {
			session.Notes = editNotes
		}
		if err := app.study.UpdateSession(ctx, session); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, session)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✏️  Session %s is now %s\n", shortID(session.ID), domain.FormatDuration(session.DurationSeconds))
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a session and remove its time from the subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		id, err := findSessionID(ctx, args[0])
		if err != nil {
			return err
		}
		if err := app.study.DeleteSession(ctx, id); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{"deleted": id})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted session %s\n", shortID(id))
		return nil
	},
}

func init() {
	sessionLogCmd.Flags().IntVarP(&sessionMinutes, "minutes", "m", 25, "Length of the session in minutes")
	sessionLogCmd.Flags().StringVarP(&sessionNotes, "notes", "n", "", "What you studied")
	sessionLogCmd.Flags().StringVar(&sessionAt, "at", "", "Start time, \"YYYY-MM-DD HH:MM\" (default: minutes ago from now)")

	sessionListCmd.Flags().IntVarP(&sessionLimit, "limit", "l", 10, "Maximum number of sessions to show")
	sessionListCmd.Flags().StringVarP(&sessionSubject, "subject", "s", "", "Only sessions of this subject")

	sessionEditCmd.Flags().IntVarP(&editMinutes, "minutes", "m", 0, "New length in minutes")
	sessionEditCmd.Flags().StringVarP(&editNotes, "notes", "n", "", "New notes")

	sessionCmd.AddCommand(sessionLogCmd, sessionListCmd, sessionEditCmd, sessionDeleteCmd)
}

// newestFirst reverses oldest-first sessions and keeps at most limit.
func newestFirst(sessions []*domain.StudySession, limit int) []*domain.StudySession {
	out := make([]*domain.StudySession, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		out = append(out, sessions[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
