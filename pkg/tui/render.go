package tui

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/postboy/postboy/pkg/core"
	"github.com/postboy/postboy/pkg/format"
)

// RenderTab returns the content of one response tab. A nil renderer gives
// uncolored output.
func RenderTab(resp *core.NormalizedResponse, tab core.ResponseTab, renderer *glamour.TermRenderer) string {
	if resp == nil {
		return ""
	}
	if resp.Failed() {
		return fmt.Sprint(resp.Body)
	}

	switch tab {
	case core.TabHeaders:
		return renderHeaders(resp.Headers)
	case core.TabRaw:
		return rawBody(resp.Body)
	case core.TabPreview:
		return renderPreview(resp, renderer)
	default:
		return renderBody(resp, renderer)
	}
}

func renderBody(resp *core.NormalizedResponse, renderer *glamour.TermRenderer) string {
	f := format.Response(resp)
	switch f.Type {
	case core.TypeJSON:
		return HighlightJSON(renderer, format.Pretty(f))
	case core.TypeImage, core.TypePDF:
		return describeDataURL(fmt.Sprint(f.Content))
	default:
		return format.Pretty(f)
	}
}

func renderPreview(resp *core.NormalizedResponse, renderer *glamour.TermRenderer) string {
	f := format.Response(resp)
	switch f.Type {
	case core.TypeHTML:
		return highlightCode(renderer, "html", format.Pretty(f))
	case core.TypeImage, core.TypePDF:
		return describeDataURL(fmt.Sprint(f.Content))
	case core.TypeJSON:
		return HighlightJSON(renderer, format.Pretty(f))
	default:
		return format.Pretty(f)
	}
}

func renderHeaders(headers map[string]string) string {
	if len(headers) == 0 {
		return "(no headers)"
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(headers[k])
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// rawBody is the body exactly as received: strings untouched, decoded JSON
// re-encoded compactly.
func rawBody(body any) string {
	switch b := body.(type) {
	case nil:
		return ""
	case string:
		return b
	case []byte:
		return string(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Sprint(b)
		}
		return string(data)
	}
}

// describeDataURL summarizes a base64 data URL instead of dumping it.
func describeDataURL(dataURL string) string {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(dataURL, "data:"), ",")
	if !ok {
		return dataURL
	}
	mediaType, _, _ := strings.Cut(meta, ";")
	size := base64.StdEncoding.DecodedLen(len(payload))
	if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
		size = len(data)
	}
	return fmt.Sprintf("[%s, %s] ctrl+y or --copy to export the data URL", mediaType, FormatSize(size))
}

// FormatSize renders a byte count for the status line.
func FormatSize(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

// StatusLine is the one-line summary above the tabs.
func StatusLine(resp *core.NormalizedResponse) string {
	if resp == nil {
		return ""
	}
	if resp.Failed() {
		return fmt.Sprintf("%s %s  %s  %d ms", resp.Method, resp.URL, core.StatusFailed, resp.Time)
	}
	return fmt.Sprintf("%s %s  %d %s  %d ms  %s",
		resp.Method, resp.URL, resp.Status, resp.StatusText, resp.Time, FormatSize(resp.Size()))
}
