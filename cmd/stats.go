package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/services"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the study dashboard",
	Long:  `Display totals, streak, this week's study time, subject progress, upcoming work and active goals.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dash, err := app.stats.Dashboard(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, dash)
		}

		renderDashboard(cmd.OutOrStdout(), dash)
		return nil
	},
}

type dashboardStyles struct {
	title lipgloss.Style
	dim   lipgloss.Style
	value lipgloss.Style
	bar   lipgloss.Style
	warn  lipgloss.Style
}

func newDashboardStyles() dashboardStyles {
	theme := app.config.Theme
	return dashboardStyles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.ColorFocus)),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorTitle)),
		value: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.ColorSubject)),
		bar:   lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorFocus)),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	}
}

func renderDashboard(w io.Writer, dash *services.Dashboard) {
	st := newDashboardStyles()
	stats := dash.Stats

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", st.title.Render("StudyX Dashboard"))
	fmt.Fprintf(w, "  %s\n\n", st.dim.Render(strings.Repeat("─", 40)))

	fmt.Fprintf(w, "  Total: %s in %s sessions · avg %s\n",
		st.value.Render(domain.FormatDuration(stats.TotalStudySeconds)),
		st.value.Render(fmt.Sprintf("%d", stats.TotalSessions)),
		st.value.Render(domain.FormatDuration(int(stats.AverageSessionSeconds))))
	fmt.Fprintf(w, "  Streak: %s · best hour %s · favorite %s\n",
		st.value.Render(fmt.Sprintf("%d days", stats.StreakDays)),
		st.value.Render(fmt.Sprintf("%02d:00", stats.MostProductiveHour)),
		st.value.Render(stats.FavoriteSubject))
	fmt.Fprintf(w, "  Done: %s assignments · %s goals\n\n",
		st.value.Render(fmt.Sprintf("%d", stats.CompletedAssignments)),
		st.value.Render(fmt.Sprintf("%d", stats.AchievedGoals)))

	renderWeek(w, st, dash.Week)
	renderSubjects(w, st, dash.Subjects)
	renderAssignments(w, st, dash.Overdue, dash.Upcoming)
	renderGoals(w, st, dash.Goals)
}

func renderWeek(w io.Writer, st dashboardStyles, week []domain.DayTotal) {
	fmt.Fprintf(w, "  %s\n", st.dim.Render("This week"))
	maxSeconds := 0
	for _, d := range week {
		maxSeconds = max(maxSeconds, d.StudySeconds)
	}
	for _, d := range week {
		label := fmt.Sprintf("%-3s", d.Weekday.String()[:3])
		fmt.Fprintf(w, "  %s %s %s\n",
			st.dim.Render(label),
			st.bar.Render(buildBar(scaleBar(d.StudySeconds, maxSeconds, 30))),
			domain.FormatDuration(d.StudySeconds))
	}
	fmt.Fprintln(w)
}

func renderSubjects(w io.Writer, st dashboardStyles, subjects []domain.SubjectProgress) {
	if len(subjects) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\n", st.dim.Render("Subjects"))
	for _, p := range domain.TopSubjects(subjects, 5) {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("●")
		line := fmt.Sprintf("  %s %-18s %8s", swatch, p.Name, domain.FormatDuration(p.StudySeconds))
		if p.GoalHours > 0 {
			line += fmt.Sprintf("  %s %3.0f%%", st.bar.Render(buildBar(scaleBar(int(p.Percentage), 100, 20))), p.Percentage)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}

func renderAssignments(w io.Writer, st dashboardStyles, overdue, upcoming []*domain.Assignment) {
	if len(overdue) == 0 && len(upcoming) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\n", st.dim.Render("Assignments"))
	for _, a := range overdue {
		fmt.Fprintf(w, "  %s %s (%s)\n", st.warn.Render("overdue"), a.Title, a.Subject)
	}
	for _, a := range upcoming {
		fmt.Fprintf(w, "  %s %s (%s)\n", st.dim.Render(a.DueDate.Format("Mon 02")), a.Title, a.Subject)
	}
	fmt.Fprintln(w)
}

func renderGoals(w io.Writer, st dashboardStyles, goals []*domain.StudyGoal) {
	if len(goals) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\n", st.dim.Render("Goals"))
	for _, g := range goals {
		left := time.Until(g.Deadline).Round(time.Hour)
		fmt.Fprintf(w, "  %-24s %s %3.0f%%  %s\n",
			g.Title,
			st.bar.Render(buildBar(scaleBar(int(g.Progress()), 100, 20))),
			g.Progress(),
			st.dim.Render(formatMinutes(left)+" left"))
	}
	fmt.Fprintln(w)
}

// scaleBar maps value onto at most width cells, showing at least one cell
// for any non-zero value.
func scaleBar(value, maxValue, width int) int {
	if value <= 0 || maxValue <= 0 {
		return 0
	}
	n := int(math.Round(float64(value) / float64(maxValue) * float64(width)))
	return min(max(n, 1), width)
}

// buildBar creates a horizontal bar using block characters.
func buildBar(width int) string {
	if width <= 0 {
		return ""
	}
	return strings.Repeat("█", width)
}
