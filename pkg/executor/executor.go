// Package executor sends composed requests, either directly or through the
// proxy execution endpoint, and normalizes whatever comes back.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/postboy/postboy/pkg/compose"
	"github.com/postboy/postboy/pkg/core"
)

// HTTPClient is the subset of *http.Client the executor needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Executor implements compose.Executor.
type Executor struct {
	proxyURL string
	client   HTTPClient
	routing  RoutingPolicy
	timeout  time.Duration
	logger   zerolog.Logger
}

var _ compose.Executor = (*Executor)(nil)

// Option configures an Executor.
type Option func(*Executor)

// WithClient sets the HTTP client used for both routes.
func WithClient(c HTTPClient) Option {
	return func(e *Executor) { e.client = c }
}

// WithRouting sets the routing policy. The default proxies everything.
func WithRouting(p RoutingPolicy) Option {
	return func(e *Executor) { e.routing = p }
}

// WithTimeout bounds each execution. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New creates an executor that posts envelopes to proxyURL.
func New(proxyURL string, opts ...Option) *Executor {
	e := &Executor{
		proxyURL: proxyURL,
		client:   &http.Client{},
		routing:  ProxyAll{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute sends req and returns the normalized result. It returns nil for a
// blank URL and a failure response for any error.
func (e *Executor) Execute(ctx context.Context, req core.ComposedRequest) *core.NormalizedResponse {
	if strings.TrimSpace(req.URL) == "" {
		return nil
	}

	start := time.Now()
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.execute(ctx, method, req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		e.logger.Debug().Err(err).Str("method", method).Str("url", req.URL).Msg("request failed")
		return &core.NormalizedResponse{
			Method:     method,
			URL:        req.URL,
			Status:     0,
			StatusText: core.StatusFailed,
			Headers:    map[string]string{},
			Body:       err.Error(),
			Time:       elapsed,
			Type:       core.TypeText,
		}
	}

	resp.Method = method
	resp.Time = elapsed
	return resp
}

func (e *Executor) execute(ctx context.Context, method string, req core.ComposedRequest) (*core.NormalizedResponse, error) {
	params := compose.EffectiveQuery(req.URL, req.QueryParams)
	finalURL, err := compose.BuildURL(req.URL, params)
	if err != nil {
		return nil, err
	}
	target, err := url.Parse(finalURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", finalURL, err)
	}

	route := e.routing.Route(target)
	e.logger.Debug().Str("method", method).Str("url", finalURL).Stringer("route", route).Msg("sending request")

	var resp *core.NormalizedResponse
	if route == RouteDirect {
		resp, err = e.direct(ctx, method, finalURL)
	} else {
		resp, err = e.proxy(ctx, method, finalURL, req)
	}
	if err != nil {
		return nil, err
	}
	resp.URL = finalURL
	return resp, nil
}

// direct calls an allow-listed origin with minimal JSON headers and no body.
func (e *Executor) direct(ctx context.Context, method, target string) (*core.NormalizedResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if method != http.MethodGet {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error! status: %d", httpResp.StatusCode)
	}

	data, err := ReadBody(httpResp)
	if err != nil {
		return nil, err
	}

	var body any = string(data)
	var parsed any
	if err := json.Unmarshal(data, &parsed); err == nil {
		body = parsed
	}

	return &core.NormalizedResponse{
		Status:     httpResp.StatusCode,
		StatusText: StatusText(httpResp),
		Headers:    FlattenHeaders(httpResp.Header),
		Body:       body,
		Type:       TypeHint(httpResp.Header.Get("Content-Type")),
	}, nil
}

// proxy wraps the request in an envelope and unwraps the proxy's answer.
func (e *Executor) proxy(ctx context.Context, method, target string, req core.ComposedRequest) (*core.NormalizedResponse, error) {
	headers := core.HeaderMap(req.Headers)
	payload, err := compose.EncodeBody(method, req.Body)
	if err != nil {
		return nil, err
	}
	compose.ApplyContentType(headers, payload)

	var data []byte
	if payload != nil {
		data = payload.Data
	}
	envelope, err := json.Marshal(NewEnvelope(method, target, headers, data))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.proxyURL, bytes.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "*/*")

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach proxy: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := ReadBody(httpResp)
	if err != nil {
		return nil, err
	}

	contentType := httpResp.Header.Get("Content-Type")
	if IsBinaryContentType(contentType) {
		return &core.NormalizedResponse{
			Status:     httpResp.StatusCode,
			StatusText: StatusText(httpResp),
			Headers:    FlattenHeaders(httpResp.Header),
			Body:       DataURL(contentType, body),
			Type:       TypeHint(contentType),
		}, nil
	}

	return unwrapResult(httpResp, body), nil
}

// unwrapResult reads the proxy's {status, statusText, headers, body} answer,
// filling missing fields from the proxy response itself. Text that is not
// JSON is returned as the body of the proxy response. JSON that is not an
// object has none of the fields and falls back on each of them.
func unwrapResult(httpResp *http.Response, text []byte) *core.NormalizedResponse {
	var parsed any
	if err := json.Unmarshal(text, &parsed); err != nil {
		return &core.NormalizedResponse{
			Status:     httpResp.StatusCode,
			StatusText: StatusText(httpResp),
			Headers:    FlattenHeaders(httpResp.Header),
			Body:       string(text),
			Type:       TypeHint(httpResp.Header.Get("Content-Type")),
		}
	}

	doc, _ := parsed.(map[string]any)
	resp := &core.NormalizedResponse{
		Status:  httpResp.StatusCode,
		Headers: map[string]string{},
		Body:    "",
	}
	if status, ok := doc["status"].(float64); ok {
		resp.Status = int(status)
	}
	if st, ok := doc["statusText"].(string); ok {
		resp.StatusText = st
	}
	if headers, ok := doc["headers"].(map[string]any); ok {
		for k, v := range headers {
			resp.Headers[strings.ToLower(k)] = headerValue(v)
		}
	}
	if body, ok := doc["body"]; ok && !falsy(body) {
		resp.Body = body
	}

	switch {
	case resp.Headers["content-type"] != "":
		resp.Type = TypeHint(resp.Headers["content-type"])
	case isStructured(resp.Body):
		resp.Type = core.TypeJSON
	default:
		resp.Type = core.TypeText
	}
	return resp
}

func headerValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, headerValue(p))
		}
		return strings.Join(parts, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func falsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case float64:
		return t == 0
	}
	return false
}

func isStructured(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}
