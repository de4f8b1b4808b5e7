package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/postboy/postboy/pkg/format"
)

// Minimal color palette
var (
	DimColor     = lipgloss.Color("#6c6c6c")
	TextColor    = lipgloss.Color("#e0e0e0")
	AccentColor  = lipgloss.Color("#7aa2f7")
	ErrorColor   = lipgloss.Color("#f7768e")
	SuccessColor = lipgloss.Color("#9ece6a")
	WarnColor    = lipgloss.Color("#e0af68")
)

var (
	MethodStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true)

	URLStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	MetaStyle = lipgloss.NewStyle().
			Foreground(DimColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true).
			Underline(true).
			Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Foreground(DimColor).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(DimColor)

	ShortcutKeyStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	ShortcutDescStyle = lipgloss.NewStyle().
				Foreground(DimColor)
)

// statusStyle colors a status code by class.
func statusStyle(status int) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch format.StatusClass(status) {
	case format.ClassSuccess:
		return s.Foreground(SuccessColor)
	case format.ClassRedirect:
		return s.Foreground(AccentColor)
	case format.ClassClientError:
		return s.Foreground(WarnColor)
	default:
		return s.Foreground(ErrorColor)
	}
}
