// Package tui renders the live board in the terminal.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/agentboard/internal/errors"
	"github.com/Iron-Ham/agentboard/internal/hub"
)

// App runs the board view against a hub.
type App struct {
	hub *hub.Hub
}

// New creates an App for h.
func New(h *hub.Hub) *App {
	return &App{hub: h}
}

// Run blocks until the user quits or ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	states, unsubscribe := a.hub.Subscribe()
	defer unsubscribe()

	program := tea.NewProgram(
		NewModel(states, a.hub),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
