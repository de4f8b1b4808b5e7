package tui

import (
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/postboy/postboy/pkg/core"
	"github.com/postboy/postboy/pkg/format"
)

// copyToClipboard is swapped in tests.
var copyToClipboard = clipboard.WriteAll

// handleKeyMsg processes keyboard input and returns the updated model and command.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.flash = ""
	switch msg.String() {
	case "ctrl+c", "esc", "q":
		return m, tea.Quit

	case "tab", "right", "l":
		return m.handleCycleTab(1), nil

	case "shift+tab", "left", "h":
		return m.handleCycleTab(-1), nil

	case "1", "2", "3", "4":
		return m.handleSelectTab(int(msg.String()[0] - '1')), nil

	case "ctrl+r":
		return m.handleResend()

	case "ctrl+y":
		return m.handleCopyBody(), nil

	case "pgup", "pgdown", "home", "end", "up", "down", "j", "k":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	default:
		return m, nil
	}
}

func (m Model) handleCycleTab(step int) Model {
	tabs := core.ResponseTabs
	current := 0
	for i, t := range tabs {
		if t == m.activeTab() {
			current = i
			break
		}
	}
	return m.handleSelectTab((current + step + len(tabs)) % len(tabs))
}

func (m Model) handleSelectTab(i int) Model {
	if i < 0 || i >= len(core.ResponseTabs) {
		return m
	}
	m.composer.SwitchTab(core.ResponseTabs[i], true)
	m.updateViewportContent()
	m.viewport.GotoTop()
	return m
}

func (m Model) handleResend() (Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.send())
}

// handleCopyBody copies the formatted response body.
func (m Model) handleCopyBody() Model {
	resp := m.composer.Session().Response
	if resp == nil {
		return m
	}
	if err := copyToClipboard(format.Pretty(format.Response(resp))); err != nil {
		m.flash = "copy failed: " + err.Error()
		return m
	}
	m.flash = "body copied"
	return m
}
