package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"

	"github.com/xvierd/studyx/internal/config"
	"github.com/xvierd/studyx/internal/domain"
)

// terminalWidth returns the current terminal width, defaulting to 80.
func terminalWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// Run shows the timer screen until the user quits or ctx is cancelled. The
// running period is stopped on exit so an abandoned focus is not recorded.
func Run(ctx context.Context, ctrl Controller, subjects []*domain.Subject, theme *config.ThemeConfig) error {
	program := tea.NewProgram(
		NewModel(ctrl, subjects, theme),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := program.Run()
	ctrl.Stop()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
