package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the editor and blocks until the user exits. It reports whether
// the session's data was committed to the backend before exit.
func Run(ctx context.Context, cfg Config) (bool, error) {
	if cfg.Session == nil {
		return false, fmt.Errorf("session is required")
	}
	if cfg.Gateway == nil {
		return false, fmt.Errorf("gateway is required")
	}
	if cfg.Title == "" {
		cfg.Title = "Referral Data"
	}

	program := tea.NewProgram(newModel(cfg), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return false, fmt.Errorf("editor failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return false, nil
	}
	return m.Saved(), nil
}
