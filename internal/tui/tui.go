package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pminternship/alloc-admin/internal/core"
)

// Run shows the dashboard in the terminal until the user quits or ctx ends.
func Run(ctx context.Context, engine *core.Engine, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := New(ctx, engine, opts)
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui exited with error: %w", err)
	}
	return nil
}
