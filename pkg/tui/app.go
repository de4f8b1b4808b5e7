// Package tui is the terminal response viewer.
//
// File organization:
// - app.go: Entry point (Run function)
// - model.go: Model struct and message types
// - init.go: Model initialization
// - update.go: Event handling and state updates
// - view.go: Rendering and display logic
// - keys.go: Keyboard input handling
// - styles.go: Visual styling
// - highlight.go: JSON syntax highlighting
// - render.go: Tab content rendering shared with the plain CLI output
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/postboy/postboy/pkg/compose"
)

// Run sends the composer's request through exec and shows the response
// until the user quits.
func Run(ctx context.Context, c *compose.Composer, exec compose.Executor) error {
	m := NewModel(ctx, c, exec)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := prog.Run()
	return err
}
