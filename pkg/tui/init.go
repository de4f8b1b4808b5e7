package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/postboy/postboy/pkg/compose"
)

// newSpinner creates a spinner with the dots animation.
func newSpinner() spinner.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{
			".       ",
			"..      ",
			"...     ",
			"....    ",
			".....   ",
			"......  ",
			"....... ",
			"........",
		},
		FPS: time.Second / 5,
	}
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)
	return sp
}

func newGlamourRenderer(width int) *glamour.TermRenderer {
	if width < 40 {
		width = 40
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return renderer
}

// NewModel returns a viewer that sends c's request on start.
func NewModel(ctx context.Context, c *compose.Composer, exec compose.Executor) Model {
	return Model{
		ctx:      ctx,
		composer: c,
		exec:     exec,
		spinner:  newSpinner(),
		renderer: newGlamourRenderer(80),
		loading:  true,
	}
}

// Init starts the first send.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.send(),
	)
}

func (m Model) send() tea.Cmd {
	return sendCmd(m.ctx, m.composer, m.exec)
}
