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
	assignmentSubject     string
	assignmentDue         string
	assignmentPriority    string
	assignmentDescription string
	assignmentEstimate    float64
	assignmentAll         bool
)

var assignmentCmd = &cobra.Command{
	Use:     "assignment",
	Aliases: []string{"assignments", "hw"},
	Short:   "Track assignments and their due dates",
}

var assignmentAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add an assignment",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		due, err := parseDue(assignmentDue)
		if err != nil {
			return err
		}

		a, err := app.study.AddAssignment(context.Background(), services.AddAssignmentRequest{
			Title:          joinArgs(args),
			Description:    assignmentDescription,
			Subject:        assignmentSubject,
			DueDate:        due,
			Priority:       assignmentPriority,
			EstimatedHours: assignmentEstimate,
		})
		if err != nil {
			return fmt.Errorf("failed to add assignment: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, a)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Assignment added: %s for %s, due %s (ID: %s)\n",
			a.Title, a.Subject, a.DueDate.Format("Mon Jan 2 15:04"), shortID(a.ID))
		return nil
	},
}

var assignmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List unfinished assignments by due date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var (
			assignments []*domain.Assignment
			err         error
		)
		switch {
		case assignmentSubject != "":
			subject, rerr := app.study.ResolveSubject(ctx, assignmentSubject)
			if rerr != nil {
				return rerr
			}
			assignments, err = app.study.ListAssignments(ctx, subject.ID)
		case assignmentAll:
			assignments, err = app.study.ListAssignments(ctx, "")
		default:
			assignments, err = app.study.UpcomingAssignments(ctx, 50)
		}
		if err != nil {
			return fmt.Errorf("failed to list assignments: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{
				"assignments": assignments,
				"count":       len(assignments),
			})
		}

		out := cmd.OutOrStdout()
		if len(assignments) == 0 {
			fmt.Fprintln(out, "No assignments found.")
			return nil
		}

		now := time.Now()
		fmt.Fprintf(out, "📝 Assignments (%d):\n\n", len(assignments))
		for _, a := range assignments {
			fmt.Fprintf(out, "%s %-30s %-16s due %s  [%s]  (ID: %s)\n",
				assignmentIcon(a, now), a.Title, a.Subject, a.DueDate.Format("Jan 2 15:04"), a.Priority, shortID(a.ID))
		}
		return nil
	},
}

var assignmentCompleteCmd = &cobra.Command{
	Use:   "complete [id]",
	Short: "Mark an assignment as done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		id, err := findAssignmentID(ctx, args[0])
		if err != nil {
			return err
		}
		a, achieved, err := app.study.CompleteAssignment(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to complete assignment: %w", err)
		}
		for _, g := range achieved {
			_ = app.notifier.NotifyGoalAchieved(*g)
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{
				"assignment":     a,
				"goals_achieved": achieved,
			})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ Completed: %s\n", a.Title)
		for _, g := range achieved {
			fmt.Fprintf(out, "🎯 Goal reached: %s\n", g.Title)
		}
		return nil
	},
}

var assignmentDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an assignment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		id, err := findAssignmentID(ctx, args[0])
		if err != nil {
			return err
		}
		if err := app.study.DeleteAssignment(ctx, id); err != nil {
			return fmt.Errorf("failed to delete assignment: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{"deleted": id})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted assignment %s\n", shortID(id))
		return nil
	},
}

func init() {
	assignmentAddCmd.Flags().StringVarP(&assignmentSubject, "subject", "s", "", "Subject ID or name (required)")
	assignmentAddCmd.Flags().StringVarP(&assignmentDue, "due", "d", "", "Due date, YYYY-MM-DD or \"YYYY-MM-DD HH:MM\" (required)")
	assignmentAddCmd.Flags().StringVarP(&assignmentPriority, "priority", "p", "medium", "Priority: low, medium, high or urgent")
	assignmentAddCmd.Flags().StringVar(&assignmentDescription, "description", "", "Assignment description")
	assignmentAddCmd.Flags().Float64Var(&assignmentEstimate, "estimate", 0, "Estimated hours of work")
	_ = assignmentAddCmd.MarkFlagRequired("subject")
	_ = assignmentAddCmd.MarkFlagRequired("due")

	assignmentListCmd.Flags().StringVarP(&assignmentSubject, "subject", "s", "", "Only assignments of this subject")
	assignmentListCmd.Flags().BoolVarP(&assignmentAll, "all", "a", false, "Include completed assignments")

	assignmentCmd.AddCommand(assignmentAddCmd, assignmentListCmd, assignmentCompleteCmd, assignmentDeleteCmd)
}

func assignmentIcon(a *domain.Assignment, now time.Time) string {
	switch {
	case a.IsCompleted():
		return "✅"
	case a.IsOverdue(now):
		return "🔴"
	case a.IsDueWithin(now, 1):
		return "🟠"
	default:
		return "⏳"
	}
}
