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
	goalType     string
	goalTarget   float64
	goalUnit     string
	goalDeadline string
	goalSubject  string
	goalAll      bool
)

var goalCmd = &cobra.Command{
	Use:     "goal",
	Aliases: []string{"goals"},
	Short:   "Set and follow study goals",
}

var goalAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a goal",
	Long: `Add a goal counted in hours, sessions or assignments. Without --deadline a
daily goal ends tonight, a weekly goal at the end of the week and a monthly goal
at the end of the month.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := domain.GoalType(goalType)
		var deadline time.Time
		if goalDeadline != "" {
			d, err := parseDue(goalDeadline)
			if err != nil {
				return err
			}
			deadline = d
		} else {
			d, ok := defaultDeadline(time.Now(), kind, app.config.WeekStart())
			if !ok {
				return fmt.Errorf("a %s goal needs --deadline", goalType)
			}
			deadline = d
		}

		goal, err := app.study.AddGoal(context.Background(), services.AddGoalRequest{
			Title:    joinArgs(args),
			Type:     kind,
			Target:   goalTarget,
			Unit:     domain.GoalUnit(goalUnit),
			Deadline: deadline,
			Subject:  goalSubject,
		})
		if err != nil {
			return fmt.Errorf("failed to add goal: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, goal)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🎯 Goal added: %s (%g %s by %s, ID: %s)\n",
			goal.Title, goal.Target, goal.Unit, goal.Deadline.Format("Jan 2"), shortID(goal.ID))
		return nil
	},
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active goals with their progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		var (
			goals []*domain.StudyGoal
			err   error
		)
		if goalAll {
			goals, err = app.study.ListGoals(ctx)
		} else {
			goals, err = app.study.ActiveGoals(ctx)
		}
		if err != nil {
			return fmt.Errorf("failed to list goals: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{
				"goals": goals,
				"count": len(goals),
			})
		}

		out := cmd.OutOrStdout()
		if len(goals) == 0 {
			fmt.Fprintln(out, "No goals found.")
			return nil
		}

		fmt.Fprintf(out, "🎯 Goals (%d):\n\n", len(goals))
		for _, g := range goals {
			icon := "⏳"
			if g.Completed {
				icon = "✅"
			}
			fmt.Fprintf(out, "%s %-28s %5.1f/%g %-11s %3.0f%%  by %s  (ID: %s)\n",
				icon, g.Title, g.Current, g.Target, g.Unit, g.Progress(), g.Deadline.Format("Jan 2"), shortID(g.ID))
		}
		return nil
	},
}

var goalDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		id, err := findGoalID(ctx, args[0])
		if err != nil {
			return err
		}
		if err := app.study.DeleteGoal(ctx, id); err != nil {
			return fmt.Errorf("failed to delete goal: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{"deleted": id})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted goal %s\n", shortID(id))
		return nil
	},
}

func init() {
	goalAddCmd.Flags().StringVarP(&goalType, "type", "t", string(domain.GoalWeekly), "Goal type: daily, weekly, monthly or subject")
	goalAddCmd.Flags().Float64Var(&goalTarget, "target", 0, "Target amount (required)")
	goalAddCmd.Flags().StringVarP(&goalUnit, "unit", "u", string(domain.UnitHours), "Unit: hours, sessions or assignments")
	goalAddCmd.Flags().StringVarP(&goalDeadline, "deadline", "d", "", "Deadline, YYYY-MM-DD")
	goalAddCmd.Flags().StringVarP(&goalSubject, "subject", "s", "", "Only count work on this subject")
	_ = goalAddCmd.MarkFlagRequired("target")

	goalListCmd.Flags().BoolVarP(&goalAll, "all", "a", false, "Include finished and expired goals")

	goalCmd.AddCommand(goalAddCmd, goalListCmd, goalDeleteCmd)
}

// defaultDeadline is the end of the period a goal type covers. Subject goals
// have no natural period.
func defaultDeadline(now time.Time, kind domain.GoalType, weekStart time.Weekday) (time.Time, bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOf := func(t time.Time) time.Time { return t.Add(-time.Second) }

	switch kind {
	case domain.GoalDaily:
		return endOf(day.AddDate(0, 0, 1)), true
	case domain.GoalWeekly:
		return endOf(domain.WeekStart(now, weekStart).AddDate(0, 0, 7)), true
	case domain.GoalMonthly:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return endOf(first.AddDate(0, 1, 0)), true
	default:
		return time.Time{}, false
	}
}
