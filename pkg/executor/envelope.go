package executor

import (
	"encoding/base64"
	"unicode/utf8"
)

// BodyEncodingBase64 marks an envelope body that is base64 text.
const BodyEncodingBase64 = "base64"

// Envelope is the JSON document POSTed to the proxy endpoint.
type Envelope struct {
	Method  string              `json:"method"`
	URI     string              `json:"uri"`
	Headers map[string][]string `json:"headers"`
	Body    string              `json:"body"`
	// BodyEncoding is set when Body is not plain UTF-8 text
	BodyEncoding string `json:"bodyEncoding,omitempty"`
}

// NewEnvelope wraps a request for the proxy. Payloads that are not valid
// UTF-8 are base64 encoded.
func NewEnvelope(method, uri string, headers map[string]string, body []byte) Envelope {
	env := Envelope{
		Method:  method,
		URI:     uri,
		Headers: make(map[string][]string, len(headers)),
	}
	for k, v := range headers {
		env.Headers[k] = []string{v}
	}
	if utf8.Valid(body) {
		env.Body = string(body)
	} else {
		env.Body = base64.StdEncoding.EncodeToString(body)
		env.BodyEncoding = BodyEncodingBase64
	}
	return env
}

// Payload returns the raw body bytes.
func (e Envelope) Payload() ([]byte, error) {
	if e.BodyEncoding == BodyEncodingBase64 {
		return base64.StdEncoding.DecodeString(e.Body)
	}
	return []byte(e.Body), nil
}

// Result is the JSON document the proxy answers with for text payloads.
type Result struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	Body       any               `json:"body"`
}
