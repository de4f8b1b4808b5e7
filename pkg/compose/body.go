package compose

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/postboy/postboy/pkg/core"
)

// Content types produced by EncodeBody.
const (
	ContentTypeURLEncoded = "application/x-www-form-urlencoded"
	ContentTypeBinary     = "application/octet-stream"
)

// Payload is an encoded request body.
type Payload struct {
	Data []byte
	// ContentType is empty for raw bodies, which keep the user's header
	ContentType string
}

// EncodeBody encodes body for method. GET requests, empty bodies and the
// none type produce a nil payload.
func EncodeBody(method string, body *core.Body) (*Payload, error) {
	if strings.EqualFold(method, http.MethodGet) || body.Empty() {
		return nil, nil
	}

	switch body.Type {
	case core.BodyRaw:
		return &Payload{Data: []byte(body.Raw)}, nil

	case core.BodyBinary:
		return &Payload{Data: []byte(body.Raw), ContentType: ContentTypeBinary}, nil

	case core.BodyURLEncoded:
		return &Payload{
			Data:        []byte(EncodePairs(body.Form)),
			ContentType: ContentTypeURLEncoded,
		}, nil

	case core.BodyFormData:
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		for _, p := range core.ActivePairs(body.Form) {
			if err := writer.WriteField(p.Key, p.Value); err != nil {
				return nil, fmt.Errorf("write form field %q: %w", p.Key, err)
			}
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("finalize multipart: %w", err)
		}
		return &Payload{Data: buf.Bytes(), ContentType: writer.FormDataContentType()}, nil

	default:
		return nil, nil
	}
}

// ApplyContentType sets the payload's content type on headers. Form bodies
// always override the user's Content-Type; binary only fills it in when the
// user did not set one.
func ApplyContentType(headers map[string]string, payload *Payload) {
	if payload == nil || payload.ContentType == "" {
		return
	}

	existing := ""
	for k, v := range headers {
		if strings.EqualFold(k, "Content-Type") {
			existing = v
			delete(headers, k)
		}
	}

	if payload.ContentType == ContentTypeBinary && existing != "" {
		headers["Content-Type"] = existing
		return
	}
	headers["Content-Type"] = payload.ContentType
}
