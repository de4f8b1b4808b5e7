// Package core holds the data model shared by the composer, the transport
// executor, the response formatter and the collection store.
package core

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// KeyValuePair is a toggle-able name/value entry used for query parameters,
// headers and form fields. Ordering is insertion order.
type KeyValuePair struct {
	// ID is a generated token used only for identity
	ID      string `json:"id" yaml:"id"`
	Key     string `json:"key" yaml:"key"`
	Value   string `json:"value" yaml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// NewPair creates an enabled pair with a fresh ID.
func NewPair(key, value string) KeyValuePair {
	return KeyValuePair{
		ID:      uuid.NewString(),
		Key:     key,
		Value:   value,
		Enabled: true,
	}
}

// Active reports whether the pair takes part in an outgoing request.
func (p KeyValuePair) Active() bool {
	return p.Enabled && p.Key != ""
}

// ActivePairs returns the enabled, keyed entries in order.
func ActivePairs(pairs []KeyValuePair) []KeyValuePair {
	active := make([]KeyValuePair, 0, len(pairs))
	for _, p := range pairs {
		if p.Active() {
			active = append(active, p)
		}
	}
	return active
}

// HeaderMap collapses the active pairs into a map. Duplicate keys are
// resolved last-write-wins.
func HeaderMap(pairs []KeyValuePair) map[string]string {
	headers := make(map[string]string)
	for _, p := range ActivePairs(pairs) {
		headers[p.Key] = p.Value
	}
	return headers
}

// UpsertPair replaces the value of the first pair whose key matches
// (case-insensitively) or appends a new pair.
func UpsertPair(pairs []KeyValuePair, key, value string) []KeyValuePair {
	for i, p := range pairs {
		if strings.EqualFold(p.Key, key) {
			pairs[i].Value = value
			pairs[i].Enabled = true
			return pairs
		}
	}
	return append(pairs, NewPair(key, value))
}

// BodyType is the encoding discipline for an outgoing payload.
type BodyType string

const (
	BodyNone       BodyType = "none"
	BodyRaw        BodyType = "raw"
	BodyFormData   BodyType = "form-data"
	BodyURLEncoded BodyType = "x-www-form-urlencoded"
	BodyBinary     BodyType = "binary"
)

// Valid reports whether t is a known body type. The empty type is valid and
// means no body.
func (t BodyType) Valid() bool {
	switch t {
	case "", BodyNone, BodyRaw, BodyFormData, BodyURLEncoded, BodyBinary:
		return true
	}
	return false
}

// IsForm reports whether the body content is a list of pairs.
func (t BodyType) IsForm() bool {
	return t == BodyFormData || t == BodyURLEncoded
}

// Body is a request payload. Raw is read for raw and binary bodies, Form for
// the two form encodings; the other field is ignored.
type Body struct {
	Type BodyType       `json:"type,omitempty" yaml:"type,omitempty"`
	Raw  string         `json:"raw,omitempty" yaml:"raw,omitempty"`
	Form []KeyValuePair `json:"form,omitempty" yaml:"form,omitempty"`
}

// Empty reports whether the body contributes nothing for its type.
func (b *Body) Empty() bool {
	if b == nil {
		return true
	}
	switch b.Type {
	case BodyRaw, BodyBinary:
		return b.Raw == ""
	case BodyFormData, BodyURLEncoded:
		// an empty list still produces an (empty) payload
		return b.Form == nil
	default:
		return true
	}
}

// ComposedRequest is what the composer hands to the transport executor.
type ComposedRequest struct {
	Method      string         `json:"method" yaml:"method"`
	URL         string         `json:"url" yaml:"url"`
	QueryParams []KeyValuePair `json:"queryParams,omitempty" yaml:"query_params,omitempty"`
	Headers     []KeyValuePair `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body        *Body          `json:"body,omitempty" yaml:"body,omitempty"`
}

// SavedRequest is the persisted form of a composed request.
type SavedRequest struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	CollectionID int64  `json:"collectionId" yaml:"collection_id"`

	ComposedRequest `yaml:",inline"`
}

// Collection is a named, ordered group of saved requests.
type Collection struct {
	ID       int64          `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Open     bool           `json:"isOpen,omitempty" yaml:"-"`
	Requests []SavedRequest `json:"requests,omitempty" yaml:"requests,omitempty"`
}

// ResponseType is an advisory rendering hint.
type ResponseType string

const (
	TypeText  ResponseType = "text"
	TypeJSON  ResponseType = "json"
	TypeHTML  ResponseType = "html"
	TypeImage ResponseType = "image"
	TypePDF   ResponseType = "pdf"
)

// StatusFailed is the status text of a response synthesized from an error.
const StatusFailed = "Failed"

// NormalizedResponse is the uniform result of executing a request, whether it
// went direct, through the proxy, or failed.
type NormalizedResponse struct {
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	// Body is a string, a data URL for binary payloads, or a decoded JSON value
	Body any          `json:"body"`
	Time int64        `json:"time"`
	Type ResponseType `json:"type,omitempty"`
}

// Failed reports whether the response was synthesized from a transport error.
func (r *NormalizedResponse) Failed() bool {
	return r.Status == 0 && r.StatusText == StatusFailed
}

// Size is the body length as the response panel reports it.
func (r *NormalizedResponse) Size() int {
	switch b := r.Body.(type) {
	case nil:
		return 0
	case string:
		return len(b)
	case []byte:
		return len(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return 0
		}
		return len(data)
	}
}

// ResponseTab is a panel of the request/response view.
type ResponseTab string

const (
	TabParams  ResponseTab = "params"
	TabHeaders ResponseTab = "headers"
	TabBody    ResponseTab = "body"
	TabRaw     ResponseTab = "raw"
	TabPreview ResponseTab = "preview"
)

// ResponseTabs lists the tabs shown for a response, in display order.
var ResponseTabs = []ResponseTab{TabBody, TabHeaders, TabRaw, TabPreview}
