package tui

import (
	"strings"
	"testing"

	"github.com/postboy/postboy/pkg/core"
)

func TestRenderTab(t *testing.T) {
	jsonResp := &core.NormalizedResponse{
		Status:     200,
		StatusText: "OK",
		Headers:    map[string]string{"x-b": "2", "content-type": "application/json"},
		Body:       map[string]any{"a": float64(1)},
		Type:       core.TypeJSON,
	}
	image := &core.NormalizedResponse{
		Status:  200,
		Headers: map[string]string{"content-type": "image/png"},
		Body:    "data:image/png;base64,AQID",
		Type:    core.TypeImage,
	}
	failed := &core.NormalizedResponse{StatusText: core.StatusFailed, Body: "dial tcp: refused"}

	tests := []struct {
		name string
		resp *core.NormalizedResponse
		tab  core.ResponseTab
		want string
	}{
		{"nil", nil, core.TabBody, ""},
		{"json body pretty", jsonResp, core.TabBody, "{\n  \"a\": 1\n}"},
		{"raw is compact", jsonResp, core.TabRaw, `{"a":1}`},
		{"headers sorted", jsonResp, core.TabHeaders, "content-type: application/json\nx-b: 2"},
		{"image summarized", image, core.TabBody, "[image/png, 3 B] ctrl+y or --copy to export the data URL"},
		{"image raw keeps data url", image, core.TabRaw, "data:image/png;base64,AQID"},
		{"failed shows error", failed, core.TabHeaders, "dial tcp: refused"},
		{"no headers", &core.NormalizedResponse{Status: 204, Body: ""}, core.TabHeaders, "(no headers)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderTab(tt.resp, tt.tab, nil); got != tt.want {
				t.Errorf("RenderTab() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHighlightJSONWithoutRenderer(t *testing.T) {
	if got := HighlightJSON(nil, `{"a":[1]}`); got != "{\n  \"a\": [\n    1\n  ]\n}" {
		t.Errorf("HighlightJSON() = %q", got)
	}
	if got := HighlightJSON(nil, "not json"); got != "not json" {
		t.Errorf("HighlightJSON() = %q", got)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.n); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestStatusLine(t *testing.T) {
	resp := &core.NormalizedResponse{Method: "GET", URL: "https://x", Status: 404, StatusText: "Not Found", Time: 12, Body: "nope"}
	if got := StatusLine(resp); got != "GET https://x  404 Not Found  12 ms  4 B" {
		t.Errorf("StatusLine() = %q", got)
	}
	failed := &core.NormalizedResponse{Method: "GET", URL: "https://x", StatusText: core.StatusFailed, Time: 3}
	if got := StatusLine(failed); !strings.Contains(got, "Failed") {
		t.Errorf("StatusLine(failed) = %q", got)
	}
}
