package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/postboy/postboy/pkg/compose"
	"github.com/postboy/postboy/pkg/core"
)

// Model is the Bubble Tea model for the response viewer.
// The active tab and the response live in the composer session so the
// choice survives the next send.
type Model struct {
	ctx      context.Context
	composer *compose.Composer
	exec     compose.Executor

	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	ready    bool
	width    int
	height   int

	loading bool
	flash   string // one-shot footer notice, cleared on the next key
}

// responseMsg carries the result of a send.
type responseMsg struct {
	resp *core.NormalizedResponse
}

// sendCmd runs the request in the background.
func sendCmd(ctx context.Context, c *compose.Composer, exec compose.Executor) tea.Cmd {
	return func() tea.Msg {
		return responseMsg{resp: c.Send(ctx, exec)}
	}
}
