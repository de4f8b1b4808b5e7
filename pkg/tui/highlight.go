package tui

import (
	"encoding/json"
	"strings"

	"github.com/charmbracelet/glamour"
)

// HighlightJSON pretty prints and colors a JSON document. Input that is not
// JSON, or a nil renderer, yields the input unchanged.
func HighlightJSON(renderer *glamour.TermRenderer, input string) string {
	var js any
	if json.Unmarshal([]byte(input), &js) != nil {
		return input
	}
	pretty, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return input
	}
	return highlightCode(renderer, "json", string(pretty))
}

// highlightCode renders src as a fenced code block in lang.
func highlightCode(renderer *glamour.TermRenderer, lang, src string) string {
	if renderer == nil {
		return src
	}
	var sb strings.Builder
	sb.WriteString("```" + lang + "\n")
	sb.WriteString(src)
	sb.WriteString("\n```")

	out, err := renderer.Render(sb.String())
	if err != nil {
		return src
	}
	return strings.TrimSpace(out)
}
