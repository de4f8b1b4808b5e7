package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestHeaderMap_MixedEnabled(t *testing.T) {
	tests := []struct {
		name  string
		pairs []KeyValuePair
		want  map[string]string
	}{
		{
			name: "disabled and empty keys dropped",
			pairs: []KeyValuePair{
				{Key: "Accept", Value: "application/json", Enabled: true},
				{Key: "X-Off", Value: "1", Enabled: false},
				{Key: "", Value: "orphan", Enabled: true},
			},
			want: map[string]string{"Accept": "application/json"},
		},
		{
			name: "last write wins",
			pairs: []KeyValuePair{
				{Key: "X-Trace", Value: "a", Enabled: true},
				{Key: "X-Trace", Value: "b", Enabled: true},
				{Key: "X-Trace", Value: "c", Enabled: false},
			},
			want: map[string]string{"X-Trace": "b"},
		},
		{
			name:  "nil list",
			pairs: nil,
			want:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HeaderMap(tt.pairs)
			if len(got) != len(tt.want) {
				t.Fatalf("HeaderMap() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("HeaderMap()[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestActivePairs_PreservesOrder(t *testing.T) {
	pairs := []KeyValuePair{
		{Key: "b", Value: "2", Enabled: true},
		{Key: "skip", Value: "x", Enabled: false},
		{Key: "a", Value: "1", Enabled: true},
	}
	got := ActivePairs(pairs)
	if len(got) != 2 || got[0].Key != "b" || got[1].Key != "a" {
		t.Errorf("ActivePairs() = %+v, want [b a]", got)
	}
}

func TestUpsertPair(t *testing.T) {
	pairs := []KeyValuePair{{Key: "authorization", Value: "old", Enabled: false}}
	pairs = UpsertPair(pairs, "Authorization", "Bearer t")
	if len(pairs) != 1 || pairs[0].Value != "Bearer t" || !pairs[0].Enabled {
		t.Errorf("UpsertPair() replaced = %+v", pairs)
	}

	pairs = UpsertPair(pairs, "Accept", "*/*")
	if len(pairs) != 2 || pairs[1].ID == "" {
		t.Errorf("UpsertPair() appended = %+v", pairs)
	}
}

func TestBodyEmpty(t *testing.T) {
	tests := []struct {
		name string
		body *Body
		want bool
	}{
		{"nil", nil, true},
		{"none", &Body{Type: BodyNone, Raw: "ignored"}, true},
		{"raw with content", &Body{Type: BodyRaw, Raw: "x"}, false},
		{"raw shape mismatch", &Body{Type: BodyRaw, Form: []KeyValuePair{{Key: "a"}}}, true},
		{"form list", &Body{Type: BodyFormData, Form: []KeyValuePair{}}, false},
		{"form shape mismatch", &Body{Type: BodyURLEncoded, Raw: "a=1"}, true},
		{"binary", &Body{Type: BodyBinary, Raw: "\x00\x01"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.body.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizedResponseSize(t *testing.T) {
	tests := []struct {
		name string
		body any
		want int
	}{
		{"nil", nil, 0},
		{"string", "hello", 5},
		{"structured", map[string]any{"a": 1.0}, len(`{"a":1}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &NormalizedResponse{Body: tt.body}
			if got := r.Size(); got != tt.want {
				t.Errorf("Size() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInitializeFolder(t *testing.T) {
	dir := t.TempDir()

	if err := InitializeFolder(dir); err != nil {
		t.Fatalf("InitializeFolder() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FolderName, "config.json"))
	if err != nil {
		t.Fatalf("config.json not written: %v", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("config.json invalid: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":8080")
	}

	for _, sub := range []string{"environments/dev.yaml", "collections"} {
		if _, err := os.Stat(filepath.Join(dir, FolderName, sub)); err != nil {
			t.Errorf("%s missing: %v", sub, err)
		}
	}

	// second run is a no-op
	if err := InitializeFolder(dir); err != nil {
		t.Errorf("InitializeFolder() second run error = %v", err)
	}
}
