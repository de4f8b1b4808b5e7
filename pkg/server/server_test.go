package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postboy/postboy/pkg/collections"
	"github.com/postboy/postboy/pkg/core"
	"github.com/postboy/postboy/pkg/executor"
	"github.com/postboy/postboy/pkg/storage"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "collections"))
	require.NoError(t, err)
	srv := httptest.NewServer(New(cfg, store).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestStoreAPI_ClientRoundTrip(t *testing.T) {
	srv := newTestServer(t, Config{APIKey: "secret"})
	ctx := context.Background()
	client := collections.New(srv.URL, "secret")

	col, err := client.CreateCollection(ctx, "Users")
	require.NoError(t, err)
	require.Equal(t, int64(1), col.ID)

	saved, err := client.SaveRequest(ctx, core.SavedRequest{
		CollectionID: col.ID,
		ComposedRequest: core.ComposedRequest{
			URL:     "https://api.example.com/users",
			Headers: []core.KeyValuePair{core.NewPair("Accept", "application/json")},
			Body:    &core.Body{Type: core.BodyRaw, Raw: `{"a":1}`},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "New Request", saved.Name)
	assert.Equal(t, "GET", saved.Method)

	saved.Name = "List users"
	saved.QueryParams = []core.KeyValuePair{core.NewPair("page", "2")}
	updated, err := client.UpdateRequest(ctx, *saved)
	require.NoError(t, err)
	assert.Equal(t, "List users", updated.Name)
	require.Len(t, updated.QueryParams, 1)
	assert.Equal(t, "page", updated.QueryParams[0].Key)

	tree, err := client.FetchTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.True(t, tree[0].Open)
	require.Len(t, tree[0].Requests, 1)
	assert.Equal(t, `{"a":1}`, tree[0].Requests[0].Body.Raw)

	require.NoError(t, client.DeleteRequest(ctx, saved.ID))
	_, err = client.LoadRequest(ctx, saved.ID)
	var apiErr *collections.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestStoreAPI_Errors(t *testing.T) {
	srv := newTestServer(t, Config{APIKey: "secret"})

	resp, body := do(t, http.MethodPost, srv.URL+"/collections", map[string]string{"name": "Users"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, http.StatusUnauthorized, e.Code)

	resp, body = do(t, http.MethodGet, srv.URL+"/collections", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "listing collections needs no apiKey")
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = do(t, http.MethodGet, srv.URL+"/collections/1/requests", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/collections?apiKey=secret", map[string]string{"name": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/collections/9/requests?apiKey=secret", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, srv.URL+"/requests/nope?apiKey=secret", map[string]any{"name": "x", "body": 42})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/collections/abc/requests?apiKey=secret", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProxy_JSONResult(t *testing.T) {
	var gotMethod, gotHeader, gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Trace")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Reply", "yes")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()
	srv := newTestServer(t, Config{})

	env := executor.NewEnvelope("POST", upstream.URL+"/x", map[string]string{"X-Trace": "t1"}, []byte("payload"))
	resp, body := do(t, http.MethodPost, srv.URL+"/proxy/execute", env)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result executor.Result
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, http.StatusTeapot, result.Status)
	assert.Equal(t, "I'm a teapot", result.StatusText)
	assert.Equal(t, "yes", result.Headers["x-reply"])
	assert.Equal(t, `{"ok":true}`, result.Body)
	assert.Equal(t, "POST", gotMethod)
	assert.Equal(t, "t1", gotHeader)
	assert.Equal(t, "payload", gotBody)
}

func TestProxy_Binary(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	}))
	defer upstream.Close()
	srv := newTestServer(t, Config{})

	resp, body := do(t, http.MethodPost, srv.URL+"/proxy/execute", executor.NewEnvelope("GET", upstream.URL, nil, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, body)
}

func TestProxy_Rejects(t *testing.T) {
	srv := newTestServer(t, Config{})

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing uri", map[string]any{"method": "GET"}, http.StatusBadRequest},
		{"headers not arrays", map[string]any{"method": "GET", "uri": "http://x", "headers": map[string]any{"a": "b"}}, http.StatusBadRequest},
		{"relative uri", map[string]any{"method": "GET", "uri": "/x"}, http.StatusBadRequest},
		{"unreachable upstream", map[string]any{"method": "GET", "uri": "http://127.0.0.1:1/"}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, srv.URL+"/proxy/execute", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			var e ErrorResponse
			require.NoError(t, json.Unmarshal(body, &e))
			assert.Equal(t, tt.want, e.Code)
			assert.NotEmpty(t, e.Message)
		})
	}
}

func TestProxy_RateLimit(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer upstream.Close()
	srv := newTestServer(t, Config{RPS: 0.001, Burst: 1})
	env := executor.NewEnvelope("GET", upstream.URL, nil, nil)

	first, _ := do(t, http.MethodPost, srv.URL+"/proxy/execute", env)
	second, _ := do(t, http.MethodPost, srv.URL+"/proxy/execute", env)
	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}

func TestProxy_ExecutorEndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"q":"` + r.URL.Query().Get("q") + `"}`))
	}))
	defer upstream.Close()
	srv := newTestServer(t, Config{})

	exec := executor.New(srv.URL + "/proxy/execute")
	resp := exec.Execute(context.Background(), core.ComposedRequest{
		Method:      "get",
		URL:         upstream.URL + "/search",
		QueryParams: []core.KeyValuePair{core.NewPair("q", "go")},
	})
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, core.TypeJSON, resp.Type)
	assert.Equal(t, `{"q":"go"}`, resp.Body)
	assert.Equal(t, upstream.URL+"/search?q=go", resp.URL)
}

func TestRecoverer(t *testing.T) {
	h := recoverer(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, "Internal Server Error", e.Error)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, Config{})
	resp, body := do(t, http.MethodGet, srv.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}
