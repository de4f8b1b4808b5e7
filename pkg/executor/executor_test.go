package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/postboy/postboy/pkg/core"
)

func request(method, rawURL string) core.ComposedRequest {
	return core.ComposedRequest{Method: method, URL: rawURL}
}

// proxyServer decodes each envelope and answers with handler's result.
func proxyServer(t *testing.T, handler func(Envelope) (int, string, string)) (*httptest.Server, *[]Envelope) {
	t.Helper()
	var seen []Envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("proxy got method %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("proxy Content-Type = %q", ct)
		}
		var env Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			t.Errorf("decode envelope: %v", err)
		}
		seen = append(seen, env)

		status, contentType, body := handler(env)
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestExecute_EmptyURL(t *testing.T) {
	e := New("http://unused.invalid")
	if resp := e.Execute(context.Background(), request("GET", "  ")); resp != nil {
		t.Errorf("Execute() = %+v, want nil", resp)
	}
}

func TestExecute_ProxyEnvelope(t *testing.T) {
	srv, seen := proxyServer(t, func(Envelope) (int, string, string) {
		return 200, "application/json", `{"status":201,"statusText":"Created","headers":{"Content-Type":"application/json","X-Id":["7","8"]},"body":{"id":7}}`
	})
	e := New(srv.URL)

	off := core.NewPair("X-Off", "1")
	off.Enabled = false
	req := core.ComposedRequest{
		Method:      "post",
		URL:         "https://api.example.com/users",
		QueryParams: []core.KeyValuePair{core.NewPair("page", "2")},
		Headers:     []core.KeyValuePair{core.NewPair("Content-Type", "text/plain"), off},
		Body: &core.Body{
			Type: core.BodyURLEncoded,
			Form: []core.KeyValuePair{core.NewPair("name", "ada lovelace")},
		},
	}

	resp := e.Execute(context.Background(), req)

	if len(*seen) != 1 {
		t.Fatalf("proxy saw %d envelopes", len(*seen))
	}
	env := (*seen)[0]
	if env.Method != "POST" || env.URI != "https://api.example.com/users?page=2" {
		t.Errorf("envelope = %+v", env)
	}
	if got := env.Headers["Content-Type"]; len(got) != 1 || got[0] != "application/x-www-form-urlencoded" {
		t.Errorf("envelope Content-Type = %v", got)
	}
	if _, ok := env.Headers["X-Off"]; ok {
		t.Error("disabled header forwarded")
	}
	if env.Body != "name=ada+lovelace" {
		t.Errorf("envelope body = %q", env.Body)
	}

	if resp.Status != 201 || resp.StatusText != "Created" || resp.Method != "POST" {
		t.Errorf("response = %+v", resp)
	}
	if resp.URL != "https://api.example.com/users?page=2" {
		t.Errorf("URL = %q", resp.URL)
	}
	if resp.Headers["x-id"] != "7, 8" || resp.Headers["content-type"] != "application/json" {
		t.Errorf("Headers = %v", resp.Headers)
	}
	if body, ok := resp.Body.(map[string]any); !ok || body["id"] != float64(7) {
		t.Errorf("Body = %#v", resp.Body)
	}
	if resp.Type != core.TypeJSON {
		t.Errorf("Type = %q", resp.Type)
	}
}

func TestExecute_ProxyFallbacks(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        core.NormalizedResponse
	}{
		{
			name:        "empty object",
			status:      200,
			contentType: "application/json",
			body:        `{}`,
			want:        core.NormalizedResponse{Status: 200, StatusText: "", Body: "", Type: core.TypeText},
		},
		{
			name:        "false body",
			status:      200,
			contentType: "application/json",
			body:        `{"status":204,"body":false}`,
			want:        core.NormalizedResponse{Status: 204, Body: "", Type: core.TypeText},
		},
		{
			name:        "non json text",
			status:      502,
			contentType: "text/plain",
			body:        "upstream exploded",
			want:        core.NormalizedResponse{Status: 502, StatusText: "Bad Gateway", Body: "upstream exploded", Type: core.TypeText},
		},
		{
			name:        "json array falls back per field",
			status:      200,
			contentType: "application/json",
			body:        `[1,2]`,
			want:        core.NormalizedResponse{Status: 200, StatusText: "", Body: "", Type: core.TypeText},
		},
		{
			name:        "json string falls back per field",
			status:      200,
			contentType: "application/json",
			body:        `"x"`,
			want:        core.NormalizedResponse{Status: 200, StatusText: "", Body: "", Type: core.TypeText},
		},
		{
			name:        "json number falls back per field",
			status:      201,
			contentType: "application/json",
			body:        `42`,
			want:        core.NormalizedResponse{Status: 201, StatusText: "", Body: "", Type: core.TypeText},
		},
		{
			name:        "string body with inner html type",
			status:      200,
			contentType: "application/json",
			body:        `{"status":404,"statusText":"Not Found","headers":{"content-type":"text/html"},"body":"<h1>nope</h1>"}`,
			want:        core.NormalizedResponse{Status: 404, StatusText: "Not Found", Body: "<h1>nope</h1>", Type: core.TypeHTML},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := proxyServer(t, func(Envelope) (int, string, string) {
				return tt.status, tt.contentType, tt.body
			})
			resp := New(srv.URL).Execute(context.Background(), request("GET", "https://x.example/"))

			if resp.Failed() {
				t.Fatalf("Execute() failed: %v", resp.Body)
			}
			if resp.Status != tt.want.Status || resp.StatusText != tt.want.StatusText {
				t.Errorf("status = %d %q, want %d %q", resp.Status, resp.StatusText, tt.want.Status, tt.want.StatusText)
			}
			if resp.Body != tt.want.Body {
				t.Errorf("Body = %#v, want %#v", resp.Body, tt.want.Body)
			}
			if resp.Type != tt.want.Type {
				t.Errorf("Type = %q, want %q", resp.Type, tt.want.Type)
			}
			if resp.Headers == nil {
				t.Error("Headers is nil")
			}
		})
	}
}

func TestExecute_ProxyBinary(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}))
	defer srv.Close()

	resp := New(srv.URL).Execute(context.Background(), request("GET", "https://img.example/a.png"))

	if resp.Body != "data:image/png;base64,iVBORwAB" {
		t.Errorf("Body = %v", resp.Body)
	}
	if resp.Type != core.TypeImage {
		t.Errorf("Type = %q", resp.Type)
	}
}

func TestExecute_BinaryEnvelopeBody(t *testing.T) {
	srv, seen := proxyServer(t, func(Envelope) (int, string, string) {
		return 200, "application/json", `{"status":200}`
	})

	raw := string([]byte{0xff, 0xfe, 0x00})
	req := core.ComposedRequest{
		Method: "PUT",
		URL:    "https://files.example/blob",
		Body:   &core.Body{Type: core.BodyBinary, Raw: raw},
	}
	New(srv.URL).Execute(context.Background(), req)

	env := (*seen)[0]
	if env.BodyEncoding != BodyEncodingBase64 {
		t.Fatalf("BodyEncoding = %q", env.BodyEncoding)
	}
	data, err := env.Payload()
	if err != nil || string(data) != raw {
		t.Errorf("Payload() = %v, %v", data, err)
	}
	if got := env.Headers["Content-Type"]; len(got) != 1 || got[0] != "application/octet-stream" {
		t.Errorf("Content-Type = %v", got)
	}
}

func TestExecute_GetSendsNoBody(t *testing.T) {
	srv, seen := proxyServer(t, func(Envelope) (int, string, string) {
		return 200, "application/json", `{"status":200}`
	})

	req := request("GET", "https://api.example.com/")
	req.Body = &core.Body{Type: core.BodyRaw, Raw: `{"a":1}`}
	New(srv.URL).Execute(context.Background(), req)

	if body := (*seen)[0].Body; body != "" {
		t.Errorf("GET envelope body = %q", body)
	}
}

func TestExecute_Direct(t *testing.T) {
	var gotHeaders http.Header
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"name":"Frodo"}`)
	}))
	defer srv.Close()

	policy, err := NewOriginAllowList(srv.URL)
	if err != nil {
		t.Fatalf("NewOriginAllowList() error = %v", err)
	}
	e := New("http://proxy.invalid", WithRouting(policy))

	req := request("POST", srv.URL+"/character")
	req.Headers = []core.KeyValuePair{core.NewPair("X-Custom", "1")}
	req.Body = &core.Body{Type: core.BodyRaw, Raw: "ignored"}

	resp := e.Execute(context.Background(), req)
	if resp.Status != 200 || resp.Type != core.TypeJSON {
		t.Fatalf("Execute() = %+v", resp)
	}
	if body, ok := resp.Body.(map[string]any); !ok || body["name"] != "Frodo" {
		t.Errorf("Body = %#v", resp.Body)
	}
	if gotHeaders.Get("Accept") != "application/json" || gotHeaders.Get("Content-Type") != "application/json" {
		t.Errorf("direct headers = %v", gotHeaders)
	}
	if gotHeaders.Get("X-Custom") != "" || len(gotBody) != 0 {
		t.Error("direct call forwarded user headers or body")
	}

	resp = e.Execute(context.Background(), request("GET", srv.URL+"/missing"))
	if !resp.Failed() || resp.Body != "HTTP error! status: 404" {
		t.Errorf("Execute() non-2xx = %+v", resp)
	}
	if gotHeaders.Get("Content-Type") != "" {
		t.Error("direct GET sent Content-Type")
	}
}

func TestExecute_Failure(t *testing.T) {
	e := New("https://bad.invalid/proxy/execute")
	resp := e.Execute(context.Background(), request("GET", "https://bad.invalid/x"))

	if resp.Status != 0 || resp.StatusText != core.StatusFailed {
		t.Errorf("status = %d %q", resp.Status, resp.StatusText)
	}
	if resp.URL != "https://bad.invalid/x" || len(resp.Headers) != 0 {
		t.Errorf("response = %+v", resp)
	}
	if msg, ok := resp.Body.(string); !ok || msg == "" {
		t.Errorf("Body = %#v, want error message", resp.Body)
	}
}

func TestExecute_InvalidURL(t *testing.T) {
	resp := New("http://proxy.invalid").Execute(context.Background(), request("GET", "not a url"))
	if !resp.Failed() || resp.URL != "not a url" {
		t.Errorf("Execute() = %+v", resp)
	}
}

func TestExecute_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	e := New(srv.URL, WithTimeout(50*time.Millisecond))
	resp := e.Execute(context.Background(), request("GET", "https://slow.example/"))
	if !resp.Failed() {
		t.Errorf("Execute() = %+v, want failure", resp)
	}
}

func TestExecute_CanceledContext(t *testing.T) {
	srv, _ := proxyServer(t, func(Envelope) (int, string, string) {
		return 200, "application/json", `{}`
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := New(srv.URL).Execute(ctx, request("GET", "https://x.example/"))
	if !resp.Failed() || !strings.Contains(resp.Body.(string), "context canceled") {
		t.Errorf("Execute() = %+v", resp)
	}
}

func TestDecode(t *testing.T) {
	plain := []byte(`{"compressed":true}`)

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write(plain)
	_ = zw.Close()

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write(plain)
	_ = bw.Close()

	enc, _ := zstd.NewWriter(nil)
	zs := enc.EncodeAll(plain, nil)

	tests := []struct {
		encoding string
		data     []byte
	}{
		{"gzip", gz.Bytes()},
		{"br", br.Bytes()},
		{"zstd", zs},
		{"", plain},
		{"identity", plain},
	}

	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			got, err := Decode(tt.data, tt.encoding)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !bytes.Equal(got, plain) {
				t.Errorf("Decode() = %q", got)
			}
		})
	}

	if _, err := Decode([]byte("not gzip"), "gzip"); err == nil {
		t.Error("Decode() of corrupt gzip should fail")
	}
}

func TestExecute_CompressedProxyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		_, _ = io.WriteString(bw, `{"status":200,"body":"ok"}`)
		_ = bw.Close()
	}))
	defer srv.Close()

	resp := New(srv.URL).Execute(context.Background(), request("GET", "https://x.example/"))
	if resp.Status != 200 || resp.Body != "ok" {
		t.Errorf("Execute() = %+v", resp)
	}
}

func TestTypeHint(t *testing.T) {
	tests := []struct {
		contentType string
		want        core.ResponseType
	}{
		{"application/pdf", core.TypePDF},
		{"image/svg+xml", core.TypeImage},
		{"application/json; charset=utf-8", core.TypeJSON},
		{"text/html", core.TypeHTML},
		{"text/plain", core.TypeText},
		{"", core.TypeText},
	}
	for _, tt := range tests {
		if got := TypeHint(tt.contentType); got != tt.want {
			t.Errorf("TypeHint(%q) = %q, want %q", tt.contentType, got, tt.want)
		}
	}
}

func TestOriginAllowList(t *testing.T) {
	policy, err := NewOriginAllowList("https://API.example.com:443", "http://localhost:3000", "")
	if err != nil {
		t.Fatalf("NewOriginAllowList() error = %v", err)
	}

	tests := []struct {
		target string
		want   Route
	}{
		{"https://api.example.com/lotr/random-character", RouteDirect},
		{"https://api.example.com:443/x", RouteDirect},
		{"http://api.example.com/x", RouteProxy},
		{"http://localhost:3000/health", RouteDirect},
		{"http://localhost:3001/health", RouteProxy},
		{"https://other.example.com/", RouteProxy},
	}
	for _, tt := range tests {
		u, _ := url.Parse(tt.target)
		if got := policy.Route(u); got != tt.want {
			t.Errorf("Route(%s) = %v, want %v", tt.target, got, tt.want)
		}
	}

	if _, err := NewOriginAllowList("localhost"); err == nil {
		t.Error("NewOriginAllowList() accepted an origin without scheme")
	}
}
