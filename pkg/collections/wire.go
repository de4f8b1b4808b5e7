package collections

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/postboy/postboy/pkg/core"
)

// CollectionDTO is a collection as the store API lists it.
type CollectionDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RequestDTO is a saved request on the wire.
type RequestDTO struct {
	ID           string              `json:"id,omitempty"`
	Name         string              `json:"name"`
	URI          string              `json:"uri"`
	Method       string              `json:"method"`
	Headers      map[string][]string `json:"headers"`
	Body         WireBody            `json:"body"`
	BodyType     core.BodyType       `json:"bodyType,omitempty"`
	CollectionID int64               `json:"collectionId"`
	QueryParams  map[string]string   `json:"queryParams,omitempty"`
}

// WireBody is a request body on the wire: a string for raw and binary
// bodies, a list of pairs for the form encodings.
type WireBody struct {
	Raw  string
	Form []core.KeyValuePair
}

func (b WireBody) MarshalJSON() ([]byte, error) {
	if b.Form != nil {
		return json.Marshal(b.Form)
	}
	return json.Marshal(b.Raw)
}

func (b *WireBody) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*b = WireBody{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*b = WireBody{Raw: raw}
		return nil
	}
	var form []core.KeyValuePair
	if err := json.Unmarshal(data, &form); err != nil {
		return fmt.Errorf("body must be a string or a list of pairs: %w", err)
	}
	*b = WireBody{Form: form}
	return nil
}

// ToDTO converts a saved request for the wire. Only headers with both a key
// and a value are sent; query params only when withQuery is set.
func ToDTO(req core.SavedRequest, withQuery bool) RequestDTO {
	dto := RequestDTO{
		ID:           req.ID,
		Name:         req.Name,
		URI:          req.URL,
		Method:       req.Method,
		Headers:      map[string][]string{},
		CollectionID: req.CollectionID,
	}
	for _, h := range core.ActivePairs(req.Headers) {
		if h.Value != "" {
			dto.Headers[h.Key] = []string{h.Value}
		}
	}
	if withQuery {
		dto.QueryParams = map[string]string{}
		for _, p := range core.ActivePairs(req.QueryParams) {
			if p.Value != "" {
				dto.QueryParams[p.Key] = p.Value
			}
		}
	}
	if req.Body != nil {
		dto.BodyType = req.Body.Type
		switch {
		case req.Body.Type.IsForm():
			dto.Body.Form = core.ActivePairs(req.Body.Form)
		case req.Body.Type == core.BodyRaw || req.Body.Type == core.BodyBinary:
			dto.Body.Raw = req.Body.Raw
		}
	}
	return dto
}

// ToSaved converts a wire request back into the saved form. Header and
// query maps come back sorted by key.
func (d RequestDTO) ToSaved() core.SavedRequest {
	saved := core.SavedRequest{
		ID:           d.ID,
		Name:         d.Name,
		CollectionID: d.CollectionID,
		ComposedRequest: core.ComposedRequest{
			Method: d.Method,
			URL:    d.URI,
		},
	}

	for _, k := range sortedKeys(d.Headers) {
		for _, v := range d.Headers[k] {
			saved.Headers = append(saved.Headers, core.NewPair(k, v))
		}
	}
	for _, k := range sortedKeys(d.QueryParams) {
		saved.QueryParams = append(saved.QueryParams, core.NewPair(k, d.QueryParams[k]))
	}

	bodyType := d.BodyType
	if bodyType == "" {
		switch {
		case d.Body.Form != nil:
			bodyType = core.BodyFormData
		case d.Body.Raw != "":
			bodyType = core.BodyRaw
		default:
			bodyType = core.BodyNone
		}
	}
	saved.Body = &core.Body{Type: bodyType}
	if bodyType.IsForm() {
		saved.Body.Form = d.Body.Form
		if saved.Body.Form == nil {
			saved.Body.Form = []core.KeyValuePair{}
		}
	} else {
		saved.Body.Raw = d.Body.Raw
	}
	return saved
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
