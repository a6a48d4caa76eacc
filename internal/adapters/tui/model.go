// Package tui provides the interactive pomodoro screen built on Bubble Tea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xvierd/studyx/internal/config"
	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/services"
	"github.com/xvierd/studyx/internal/timer"
)

// Controller is the timer surface the screen drives.
type Controller interface {
	Start() error
	TogglePause()
	Stop()
	Skip()
	ResetProgress()
	Snapshot() timer.Snapshot
	Poll() []services.TimerEvent
	Subject() *domain.Subject
	SelectSubject(ctx context.Context, idOrName string) (*domain.Subject, error)
}

const subjectRequiredMessage = "Select a subject before starting a study session."

// resolveTheme fills empty colors from the defaults.
func resolveTheme(theme *config.ThemeConfig) config.ThemeConfig {
	defaults := config.DefaultThemeConfig()
	if theme == nil {
		return defaults
	}
	resolved := *theme
	rv := reflect.ValueOf(&resolved).Elem()
	dv := reflect.ValueOf(defaults)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.String() == "" {
			f.SetString(dv.Field(i).String())
		}
	}
	return resolved
}

// tickMsg drives the redraw and event polling.
type tickMsg time.Time

// Model is the timer screen.
type Model struct {
	ctrl     Controller
	snap     timer.Snapshot
	theme    config.ThemeConfig
	width    int
	subjects []*domain.Subject

	status   string
	picking  bool
	cursor   int
	quitting bool
}

// NewModel creates the screen. subjects feeds the subject picker and may be
// empty.
func NewModel(ctrl Controller, subjects []*domain.Subject, theme *config.ThemeConfig) Model {
	return Model{
		ctrl:     ctrl,
		snap:     ctrl.Snapshot(),
		theme:    resolveTheme(theme),
		width:    terminalWidth(),
		subjects: subjects,
	}
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles key presses, ticks and resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		m.applyEvents(m.ctrl.Poll())
		m.snap = m.ctrl.Snapshot()
		return m, tickCmd()
	case tea.KeyMsg:
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "s":
		if err := m.ctrl.Start(); err != nil {
			if errors.Is(err, services.ErrSubjectRequired) {
				m.status = subjectRequiredMessage
			} else {
				m.status = "Error: " + err.Error()
			}
		} else if m.snap.IsIdle() {
			m.status = ""
		}
	case "p":
		m.ctrl.TogglePause()
	case "x":
		if !m.snap.IsIdle() {
			m.ctrl.Stop()
			m.status = "Stopped. Nothing was recorded."
		}
	case "n":
		if !m.snap.IsIdle() {
			m.ctrl.Skip()
		}
	case "r":
		m.ctrl.ResetProgress()
		m.status = "Progress reset."
	case "c":
		if len(m.subjects) > 0 && m.snap.IsIdle() {
			m.picking = true
			m.cursor = m.selectedIndex()
		}
	}
	m.snap = m.ctrl.Snapshot()
	return m, nil
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.subjects)-1 {
			m.cursor++
		}
	case "enter":
		picked := m.subjects[m.cursor]
		if _, err := m.ctrl.SelectSubject(context.Background(), picked.ID); err != nil {
			m.status = "Error: " + err.Error()
		} else {
			m.status = "Studying " + picked.Name + "."
		}
		m.picking = false
	case "esc", "ctrl+c":
		m.picking = false
	}
	return m, nil
}

func (m *Model) applyEvents(events []services.TimerEvent) {
	for _, ev := range events {
		switch ev.Kind {
		case services.EventSessionRecorded:
			m.status = fmt.Sprintf("Recorded %s of %s.", domain.FormatDuration(ev.Session.DurationSeconds), subjectLabel(ev.Session.Subject))
			for _, g := range ev.Achieved {
				m.status += fmt.Sprintf(" Goal reached: %s!", g.Title)
			}
		case services.EventBreakFinished:
			m.status = ev.Break.Label() + " is over. Ready to focus?"
		case services.EventError:
			m.status = "Error: " + ev.Err.Error()
		}
	}
}

func (m Model) selectedIndex() int {
	current := m.ctrl.Subject()
	if current == nil {
		return 0
	}
	for i, s := range m.subjects {
		if s.ID == current.ID {
			return i
		}
	}
	return 0
}

// modeColor is the accent for the current mode, grey while paused.
func (m Model) modeColor() lipgloss.Color {
	switch {
	case m.snap.IsPaused():
		return lipgloss.Color(m.theme.ColorPaused)
	case m.snap.Mode == domain.ModeShortBreak:
		return lipgloss.Color(m.theme.ColorShortBreak)
	case m.snap.Mode == domain.ModeLongBreak:
		return lipgloss.Color(m.theme.ColorLongBreak)
	}
	return lipgloss.Color(m.theme.ColorFocus)
}

// View renders the screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.picking {
		return m.viewPicker()
	}

	accent := m.modeColor()
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	subjectStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorSubject))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorTitle))

	var sections []string
	sections = append(sections, titleStyle.Render(fmt.Sprintf("%s · %s", m.snap.Mode.Label(), m.snap.Phase.Label())))

	subject := "no subject selected"
	if s := m.ctrl.Subject(); s != nil {
		subject = s.Name
	}
	sections = append(sections, subjectStyle.Render("Subject: "+subject))

	sections = append(sections, "")
	sections = append(sections, renderBigClock(m.snap.FormattedRemaining(), accent, m.width))
	sections = append(sections, "")

	if m.snap.IsPaused() {
		badge := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color(m.theme.ColorPaused)).
			Padding(0, 1).
			Render("PAUSED")
		sections = append(sections, badge, "")
	}

	sections = append(sections, m.progressBar().ViewAs(m.snap.ProgressPercent()/100))
	sections = append(sections, dimStyle.Render(fmt.Sprintf("Completed: %d · Next: %s",
		m.snap.CompletedFocusCount, m.snap.NextTransitionLabel())))

	if m.status != "" {
		sections = append(sections, "", subjectStyle.Render(m.status))
	}

	sections = append(sections, "", helpStyle.Render(m.helpLine()))
	return strings.Join(sections, "\n") + "\n"
}

func (m Model) helpLine() string {
	switch {
	case m.snap.IsIdle():
		help := "[s]tart  [r]eset  [q]uit"
		if len(m.subjects) > 0 {
			help = "[s]tart  [c]hange subject  [r]eset  [q]uit"
		}
		return help
	case m.snap.IsPaused():
		return "[p]resume  [x] stop  [n]ext  [q]uit"
	default:
		return "[p]ause  [x] stop  [n]ext  [q]uit"
	}
}

func (m Model) progressBar() progress.Model {
	start, end := m.theme.FocusGradientStart, m.theme.FocusGradientEnd
	if m.snap.IsBreakMode() {
		start, end = m.theme.BreakGradientStart, m.theme.BreakGradientEnd
	}
	bar := progress.New(progress.WithGradient(start, end))
	if m.snap.IsPaused() {
		bar = progress.New(progress.WithSolidFill(m.theme.ColorPaused))
	}
	bar.Width = max(m.width-4, 10)
	return bar
}

func (m Model) viewPicker() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle))
	activeStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorFocus))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	var b strings.Builder
	b.WriteString(titleStyle.Render("Choose a subject") + "\n\n")
	for i, s := range m.subjects {
		line := fmt.Sprintf("%-24s %s", s.Name, domain.FormatDuration(s.TotalTimeSeconds))
		if i == m.cursor {
			b.WriteString(activeStyle.Render("▸ "+line) + "\n")
		} else {
			b.WriteString(dimStyle.Render("  "+line) + "\n")
		}
	}
	b.WriteString("\n" + dimStyle.Render("↑/↓ navigate · enter select · esc back") + "\n")
	return b.String()
}

func subjectLabel(name string) string {
	if name == "" {
		return "study"
	}
	return name
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
