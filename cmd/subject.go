package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/services"
)

var (
	subjectDescription string
	subjectColor       string
	subjectGoalHours   float64
)

var subjectCmd = &cobra.Command{
	Use:     "subject",
	Aliases: []string{"subjects"},
	Short:   "Manage study subjects",
}

var subjectAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a subject",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, err := app.study.AddSubject(context.Background(), services.AddSubjectRequest{
			Name:        joinArgs(args),
			Description: subjectDescription,
			Color:       subjectColor,
			GoalHours:   subjectGoalHours,
		})
		if err != nil {
			return fmt.Errorf("failed to add subject: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, subject)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Subject added: %s (ID: %s)\n", subject.Name, shortID(subject.ID))
		return nil
	},
}

var subjectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subjects with their study time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		progress, err := app.stats.SubjectProgress(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list subjects: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{
				"subjects": progress,
				"count":    len(progress),
			})
		}

		out := cmd.OutOrStdout()
		if len(progress) == 0 {
			fmt.Fprintln(out, "No subjects yet. Add one with \"studyx subject add <name>\".")
			return nil
		}

		fmt.Fprintf(out, "📚 Subjects (%d):\n\n", len(progress))
		for _, p := range progress {
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("●")
			goal := ""
			if p.GoalHours > 0 {
				goal = fmt.Sprintf("  %.0f%% of %gh", p.Percentage, p.GoalHours)
			}
			fmt.Fprintf(out, "%s %-20s %8s  %d sessions%s  (ID: %s)\n",
				swatch, p.Name, domain.FormatDuration(p.StudySeconds), p.Sessions, goal, shortID(p.SubjectID))
		}
		return nil
	},
}

var subjectRenameCmd = &cobra.Command{
	Use:   "rename [subject] [new name]",
	Short: "Rename a subject",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		subject, err := app.study.ResolveSubject(ctx, args[0])
		if err != nil {
			return err
		}
		old := subject.Name
		subject.Name = joinArgs(args[1:])
		if err := app.study.UpdateSubject(ctx, subject); err != nil {
			return fmt.Errorf("failed to rename subject: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, subject)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✏️  Renamed %s to %s\n", old, subject.Name)
		return nil
	},
}

var subjectDeleteCmd = &cobra.Command{
	Use:   "delete [subject]",
	Short: "Delete a subject with its sessions and assignments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		subject, err := app.study.ResolveSubject(ctx, args[0])
		if err != nil {
			return err
		}
		if err := app.study.DeleteSubject(ctx, subject.ID); err != nil {
			return fmt.Errorf("failed to delete subject: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{"deleted": subject.ID})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted subject %s\n", subject.Name)
		return nil
	},
}

func init() {
	subjectAddCmd.Flags().StringVarP(&subjectDescription, "description", "d", "", "Subject description")
	subjectAddCmd.Flags().StringVarP(&subjectColor, "color", "c", "", "Display color (hex)")
	subjectAddCmd.Flags().Float64VarP(&subjectGoalHours, "goal-hours", "g", 0, "Hours you aim to study")

	subjectCmd.AddCommand(subjectAddCmd, subjectListCmd, subjectRenameCmd, subjectDeleteCmd)
}
