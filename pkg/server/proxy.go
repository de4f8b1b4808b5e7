package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/postboy/postboy/pkg/executor"
)

const maxEnvelopeBytes = 32 << 20

// hop-by-hop and encoding headers that no longer describe the decoded body
var droppedResponseHeaders = []string{"content-encoding", "content-length", "transfer-encoding", "connection"}

// handleProxyExecute performs the outbound call described by an envelope.
func (s *Server) handleProxyExecute(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes))
	if err != nil {
		proxyExecutionsTotal.WithLabelValues(outcomeInvalid).Inc()
		WriteError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if err := validateEnvelope(raw); err != nil {
		proxyExecutionsTotal.WithLabelValues(outcomeInvalid).Inc()
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var env executor.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		proxyExecutionsTotal.WithLabelValues(outcomeInvalid).Inc()
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid envelope: %v", err))
		return
	}
	outbound, err := buildOutbound(r, env)
	if err != nil {
		proxyExecutionsTotal.WithLabelValues(outcomeInvalid).Inc()
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.limiter.Allow() {
		proxyExecutionsTotal.WithLabelValues(outcomeRateLimited).Inc()
		WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	start := time.Now()
	resp, err := s.client.Do(outbound)
	proxyUpstreamSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		proxyExecutionsTotal.WithLabelValues(outcomeUpstreamErr).Inc()
		s.logger.Warn().Err(err).Str("method", env.Method).Str("uri", env.URI).Msg("upstream call failed")
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer resp.Body.Close()

	body, err := executor.ReadBody(resp)
	if err != nil {
		proxyExecutionsTotal.WithLabelValues(outcomeUpstreamErr).Inc()
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if executor.IsBinaryContentType(contentType) {
		proxyExecutionsTotal.WithLabelValues(outcomeBinary).Inc()
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(body)
		return
	}

	headers := executor.FlattenHeaders(resp.Header)
	for _, h := range droppedResponseHeaders {
		delete(headers, h)
	}

	proxyExecutionsTotal.WithLabelValues(outcomeOK).Inc()
	WriteJSON(w, http.StatusOK, executor.Result{
		Status:     resp.StatusCode,
		StatusText: executor.StatusText(resp),
		Headers:    headers,
		Body:       string(body),
	})
}

// buildOutbound turns an envelope into a request bound to r's context.
func buildOutbound(r *http.Request, env executor.Envelope) (*http.Request, error) {
	target, err := url.Parse(env.URI)
	if err != nil {
		return nil, fmt.Errorf("invalid uri %q: %w", env.URI, err)
	}
	if (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return nil, fmt.Errorf("invalid uri %q: must be an absolute http(s) URL", env.URI)
	}

	payload, err := env.Payload()
	if err != nil {
		return nil, fmt.Errorf("invalid body: %w", err)
	}
	var body io.Reader
	if len(payload) > 0 {
		body = bytes.NewReader(payload)
	}

	method := strings.ToUpper(env.Method)
	req, err := http.NewRequestWithContext(r.Context(), method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, values := range env.Headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}
