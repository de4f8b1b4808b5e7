package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/postboy/postboy/pkg/core"
)

// View renders the entire TUI to a string.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) activeTab() core.ResponseTab {
	tab := m.composer.Session().ActiveTab
	for _, t := range core.ResponseTabs {
		if t == tab {
			return tab
		}
	}
	return core.TabBody
}

// updateViewportContent renders the active tab into the viewport.
func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	resp := m.composer.Session().Response
	content := RenderTab(resp, m.activeTab(), m.renderer)
	if resp != nil && resp.Failed() {
		content = ErrorStyle.Render(content)
	}
	m.viewport.SetContent(content)
}

func (m Model) renderStatus() string {
	req := m.composer.Request()
	head := MethodStyle.Render(req.Method) + " " + URLStyle.Render(req.URL)
	if m.loading {
		return head + "  " + m.spinner.View()
	}

	resp := m.composer.Session().Response
	if resp == nil {
		return head
	}
	if resp.Failed() {
		return head + "  " + ErrorStyle.Render(core.StatusFailed) + MetaStyle.Render(fmt.Sprintf("  %d ms", resp.Time))
	}
	status := statusStyle(resp.Status).Render(fmt.Sprintf("%d %s", resp.Status, resp.StatusText))
	meta := MetaStyle.Render(fmt.Sprintf("  %d ms  %s", resp.Time, FormatSize(resp.Size())))
	return head + "  " + status + meta
}

func (m Model) renderTabs() string {
	active := m.activeTab()
	parts := make([]string, 0, len(core.ResponseTabs))
	for i, t := range core.ResponseTabs {
		label := fmt.Sprintf("%d %s", i+1, t)
		if t == active {
			parts = append(parts, ActiveTabStyle.Render(label))
		} else {
			parts = append(parts, TabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// renderFooter renders the notice on the left and shortcuts on the right.
func (m Model) renderFooter() string {
	left := m.flash

	parts := []string{
		ShortcutKeyStyle.Render("tab") + ShortcutDescStyle.Render(" switch"),
		ShortcutKeyStyle.Render("ctrl+r") + ShortcutDescStyle.Render(" resend"),
		ShortcutKeyStyle.Render("ctrl+y") + ShortcutDescStyle.Render(" copy"),
		ShortcutKeyStyle.Render("q") + ShortcutDescStyle.Render(" quit"),
	}
	right := strings.Join(parts, "    ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return FooterStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}
