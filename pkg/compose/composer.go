package compose

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/postboy/postboy/pkg/core"
	"github.com/postboy/postboy/pkg/storage"
)

// Executor performs a composed request. Implementations never fail; errors
// come back as failure responses.
type Executor interface {
	Execute(ctx context.Context, req core.ComposedRequest) *core.NormalizedResponse
}

// Session is the view state tied to one composer: which tab is showing, the
// tab last picked on the response side, and the most recent response.
type Session struct {
	ActiveTab       core.ResponseTab
	LastResponseTab core.ResponseTab
	Response        *core.NormalizedResponse
	Loading         bool
}

// Composer holds the request being edited and its session. It is safe for
// concurrent use; the TUI reads it while a send is in flight.
type Composer struct {
	mu      sync.RWMutex
	req     core.ComposedRequest
	env     map[string]string
	session Session
}

// NewComposer returns a composer with the default rows: one blank disabled
// query param and JSON Content-Type/Accept headers.
func NewComposer() *Composer {
	return &Composer{
		req: core.ComposedRequest{
			Method:      http.MethodGet,
			QueryParams: []core.KeyValuePair{blankPair()},
			Headers: []core.KeyValuePair{
				core.NewPair("Content-Type", "application/json"),
				core.NewPair("Accept", "application/json"),
			},
			Body: &core.Body{Type: core.BodyNone},
		},
		session: Session{
			ActiveTab:       core.TabParams,
			LastResponseTab: core.TabBody,
		},
	}
}

func blankPair() core.KeyValuePair {
	p := core.NewPair("", "")
	p.Enabled = false
	return p
}

// Request returns a copy of the current request.
func (c *Composer) Request() core.ComposedRequest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneRequest(c.req)
}

func (c *Composer) SetMethod(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.req.Method = strings.ToUpper(strings.TrimSpace(method))
}

func (c *Composer) SetURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.req.URL = url
}

// SetBody replaces the body. A nil body resets it to none.
func (c *Composer) SetBody(body *core.Body) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if body == nil {
		body = &core.Body{Type: core.BodyNone}
	}
	c.req.Body = cloneBody(body)
}

// SetEnv sets the variables substituted into the request on send.
func (c *Composer) SetEnv(env map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.env = env
}

// AddQueryParam appends a param and returns its ID.
func (c *Composer) AddQueryParam(key, value string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := core.NewPair(key, value)
	c.req.QueryParams = append(c.req.QueryParams, p)
	return p.ID
}

// UpdateQueryParam replaces the param with the same ID. It reports whether
// one was found.
func (c *Composer) UpdateQueryParam(p core.KeyValuePair) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return updatePair(c.req.QueryParams, p)
}

func (c *Composer) RemoveQueryParam(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ok bool
	c.req.QueryParams, ok = removePair(c.req.QueryParams, id)
	return ok
}

// AddHeader appends a header and returns its ID.
func (c *Composer) AddHeader(key, value string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := core.NewPair(key, value)
	c.req.Headers = append(c.req.Headers, p)
	return p.ID
}

func (c *Composer) UpdateHeader(p core.KeyValuePair) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return updatePair(c.req.Headers, p)
}

func (c *Composer) RemoveHeader(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ok bool
	c.req.Headers, ok = removePair(c.req.Headers, id)
	return ok
}

// SetHeader upserts a header by name, ignoring case.
func (c *Composer) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.req.Headers = core.UpsertPair(c.req.Headers, key, value)
}

// Load replaces the request with a saved one. Missing method and body fall
// back to GET and none.
func (c *Composer) Load(saved core.SavedRequest) {
	req := cloneRequest(saved.ComposedRequest)
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Body == nil {
		req.Body = &core.Body{Type: core.BodyNone}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.req = req
}

// Snapshot returns the saved form of the composer. Only active params and
// headers are kept.
func (c *Composer) Snapshot(name string, collectionID int64) core.SavedRequest {
	c.mu.RLock()
	defer c.mu.RUnlock()

	body := cloneBody(c.req.Body)
	if body == nil {
		body = &core.Body{}
	}
	if body.Type == "" {
		body.Type = core.BodyNone
	}
	if body.Type.IsForm() {
		body.Form = core.ActivePairs(body.Form)
	}

	return core.SavedRequest{
		Name:         name,
		CollectionID: collectionID,
		ComposedRequest: core.ComposedRequest{
			Method:      c.req.Method,
			URL:         c.req.URL,
			QueryParams: core.ActivePairs(c.req.QueryParams),
			Headers:     core.ActivePairs(c.req.Headers),
			Body:        body,
		},
	}
}

// Session returns a copy of the session state.
func (c *Composer) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SwitchTab makes tab active. Response tabs are also remembered as the last
// response tab, which is restored after the next send.
func (c *Composer) SwitchTab(tab core.ResponseTab, isResponse bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.ActiveTab = tab
	if isResponse {
		c.session.LastResponseTab = tab
	}
}

// Send runs the request through exec with the environment applied. When the
// URL carries its own query string, those params replace the composer's.
func (c *Composer) Send(ctx context.Context, exec Executor) *core.NormalizedResponse {
	c.mu.Lock()
	if strings.TrimSpace(c.req.URL) == "" {
		c.mu.Unlock()
		return nil
	}
	if parsed := ParseURLQuery(c.req.URL); len(parsed) > 0 {
		c.req.QueryParams = parsed
	}
	req := storage.ApplyEnvironment(cloneRequest(c.req), c.env)
	c.session.Loading = true
	c.mu.Unlock()

	resp := exec.Execute(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Loading = false
	c.session.Response = resp
	c.session.ActiveTab = c.session.LastResponseTab
	return resp
}

func updatePair(pairs []core.KeyValuePair, p core.KeyValuePair) bool {
	for i := range pairs {
		if pairs[i].ID == p.ID {
			pairs[i] = p
			return true
		}
	}
	return false
}

func removePair(pairs []core.KeyValuePair, id string) ([]core.KeyValuePair, bool) {
	for i := range pairs {
		if pairs[i].ID == id {
			return append(pairs[:i:i], pairs[i+1:]...), true
		}
	}
	return pairs, false
}

func cloneRequest(req core.ComposedRequest) core.ComposedRequest {
	req.QueryParams = clonePairs(req.QueryParams)
	req.Headers = clonePairs(req.Headers)
	req.Body = cloneBody(req.Body)
	return req
}

func cloneBody(b *core.Body) *core.Body {
	if b == nil {
		return nil
	}
	return &core.Body{Type: b.Type, Raw: b.Raw, Form: clonePairs(b.Form)}
}

func clonePairs(pairs []core.KeyValuePair) []core.KeyValuePair {
	if pairs == nil {
		return nil
	}
	out := make([]core.KeyValuePair, len(pairs))
	copy(out, pairs)
	return out
}
