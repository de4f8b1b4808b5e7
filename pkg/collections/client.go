// Package collections talks to the Collection Store REST API.
package collections

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/postboy/postboy/pkg/core"
)

const (
	defaultRequestName = "New Request"
	treeConcurrency    = 4
)

// Client is a Collection Store API client.
type Client struct {
	http   *resty.Client
	apiKey string
	logger zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		base := c.http.BaseURL
		c.http = resty.NewWithClient(hc).SetBaseURL(base).SetHeader("Content-Type", "application/json")
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the store at baseURL. apiKey may be empty.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Content-Type", "application/json").
			SetTimeout(30 * time.Second),
		apiKey: apiKey,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx)
	if c.apiKey != "" {
		r.SetQueryParam("apiKey", c.apiKey)
	}
	return r
}

// do runs r and decodes a 2xx JSON answer into out, which may be nil.
func (c *Client) do(op string, r *resty.Request, method, path string, out any) error {
	resp, err := r.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.logger.Debug().Str("op", op).Str("method", method).Str("path", path).Int("status", resp.StatusCode()).Msg("store call")

	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		apiErr := &APIError{Op: op, Status: resp.StatusCode()}
		var body errorBody
		if json.Unmarshal(resp.Body(), &body) == nil {
			apiErr.Message = body.Message
			if apiErr.Message == "" {
				apiErr.Message = body.Error
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		return apiErr
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// ListCollections returns the collections without their requests.
func (c *Client) ListCollections(ctx context.Context) ([]core.Collection, error) {
	var dtos []CollectionDTO
	if err := c.do("list collections", c.request(ctx), http.MethodGet, "/collections", &dtos); err != nil {
		return nil, err
	}
	out := make([]core.Collection, len(dtos))
	for i, d := range dtos {
		out[i] = core.Collection{ID: d.ID, Name: d.Name}
	}
	return out, nil
}

// CreateCollection creates an empty collection.
func (c *Client) CreateCollection(ctx context.Context, name string) (*core.Collection, error) {
	var dto CollectionDTO
	r := c.request(ctx).SetBody(CollectionDTO{Name: name})
	if err := c.do("create collection", r, http.MethodPost, "/collections", &dto); err != nil {
		return nil, err
	}
	return &core.Collection{ID: dto.ID, Name: dto.Name}, nil
}

// ListRequests returns the requests saved in a collection.
func (c *Client) ListRequests(ctx context.Context, collectionID int64) ([]core.SavedRequest, error) {
	var dtos []RequestDTO
	path := "/collections/" + strconv.FormatInt(collectionID, 10) + "/requests"
	if err := c.do("list requests", c.request(ctx), http.MethodGet, path, &dtos); err != nil {
		return nil, err
	}
	out := make([]core.SavedRequest, len(dtos))
	for i, d := range dtos {
		out[i] = d.ToSaved()
	}
	return out, nil
}

// FetchTree returns every collection with its requests. A collection whose
// requests cannot be listed comes back closed and empty.
func (c *Client) FetchTree(ctx context.Context) ([]core.Collection, error) {
	cols, err := c.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(treeConcurrency)
	for i := range cols {
		g.Go(func() error {
			reqs, err := c.ListRequests(gctx, cols[i].ID)
			if err != nil {
				c.logger.Warn().Err(err).Int64("collection", cols[i].ID).Msg("failed to fetch requests for collection")
				cols[i].Open = false
				cols[i].Requests = nil
				return nil
			}
			cols[i].Open = true
			cols[i].Requests = reqs
			return nil
		})
	}
	_ = g.Wait()
	return cols, nil
}

// SaveRequest creates req in its collection. The name defaults to
// "New Request" and the method to GET.
func (c *Client) SaveRequest(ctx context.Context, req core.SavedRequest) (*core.SavedRequest, error) {
	if req.CollectionID == 0 {
		return nil, ErrCollectionRequired
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = defaultRequestName
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	dto := ToDTO(req, false)
	dto.ID = ""
	var out RequestDTO
	path := "/collections/" + strconv.FormatInt(req.CollectionID, 10) + "/requests"
	if err := c.do("save request", c.request(ctx).SetBody(dto), http.MethodPost, path, &out); err != nil {
		return nil, err
	}
	saved := out.ToSaved()
	return &saved, nil
}

// UpdateRequest replaces a saved request, query params included.
func (c *Client) UpdateRequest(ctx context.Context, req core.SavedRequest) (*core.SavedRequest, error) {
	if req.ID == "" {
		return nil, fmt.Errorf("update request: missing request ID")
	}
	var out RequestDTO
	r := c.request(ctx).SetBody(ToDTO(req, true))
	if err := c.do("update request", r, http.MethodPut, "/requests/"+url.PathEscape(req.ID), &out); err != nil {
		return nil, err
	}
	saved := out.ToSaved()
	return &saved, nil
}

func (c *Client) DeleteRequest(ctx context.Context, id string) error {
	return c.do("delete request", c.request(ctx), http.MethodDelete, "/requests/"+url.PathEscape(id), nil)
}

func (c *Client) LoadRequest(ctx context.Context, id string) (*core.SavedRequest, error) {
	var out RequestDTO
	if err := c.do("load request", c.request(ctx), http.MethodGet, "/requests/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	saved := out.ToSaved()
	return &saved, nil
}

// Filter returns the collections whose name contains term, ignoring case.
// A blank term matches everything.
func Filter(cols []core.Collection, term string) []core.Collection {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return cols
	}
	out := make([]core.Collection, 0, len(cols))
	for _, c := range cols {
		if strings.Contains(strings.ToLower(c.Name), term) {
			out = append(out, c)
		}
	}
	return out
}
