// Package format classifies response payloads for display.
package format

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"regexp"
	"strings"

	"github.com/postboy/postboy/pkg/core"
)

var imageDataURL = regexp.MustCompile(`^data:image/(png|jpeg|gif|webp);base64,`)

const pdfDataURL = "data:application/pdf;base64,"

// Formatted is a payload ready for a response view.
type Formatted struct {
	Type core.ResponseType
	// Content is a decoded JSON value for json, a data URL for image and
	// pdf, and a string otherwise
	Content any
}

// Response classifies the body of resp.
func Response(resp *core.NormalizedResponse) Formatted {
	if resp == nil {
		return Formatted{Type: core.TypeText, Content: ""}
	}
	return Classify(resp.Body, resp.Headers)
}

// Classify picks a display type for payload and converts it to match.
func Classify(payload any, headers map[string]string) Formatted {
	if payload == nil {
		return Formatted{Type: core.TypeText, Content: ""}
	}

	contentType := headerValue(headers, "content-type")
	switch Detect(payload, contentType) {
	case core.TypeJSON:
		return asJSON(payload)
	case core.TypeImage:
		return Formatted{Type: core.TypeImage, Content: asDataURL(payload, mediaType(contentType, "image/png"))}
	case core.TypePDF:
		return Formatted{Type: core.TypePDF, Content: asDataURL(payload, "application/pdf")}
	case core.TypeHTML:
		return Formatted{Type: core.TypeHTML, Content: textOf(payload)}
	default:
		return Formatted{Type: core.TypeText, Content: textOf(payload)}
	}
}

// Detect returns the display type of payload. A recognised content type
// wins; otherwise string payloads are sniffed.
func Detect(payload any, contentType string) core.ResponseType {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "image/"):
		return core.TypeImage
	case strings.Contains(ct, "text/html"):
		return core.TypeHTML
	case strings.Contains(ct, "application/json"):
		return core.TypeJSON
	case strings.Contains(ct, "application/pdf"):
		return core.TypePDF
	case strings.Contains(ct, "text/"):
		return core.TypeText
	}

	switch v := payload.(type) {
	case string:
		return sniff(v)
	case []byte:
		return core.TypeText
	case map[string]any, []any:
		return core.TypeJSON
	}
	return core.TypeText
}

func sniff(s string) core.ResponseType {
	switch {
	case imageDataURL.MatchString(s):
		return core.TypeImage
	case strings.HasPrefix(s, pdfDataURL):
		return core.TypePDF
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">"):
		return core.TypeHTML
	case json.Valid([]byte(s)):
		return core.TypeJSON
	}
	return core.TypeText
}

// asJSON decodes string payloads. Text that does not parse is shown as text.
func asJSON(payload any) Formatted {
	var raw []byte
	switch v := payload.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return Formatted{Type: core.TypeJSON, Content: payload}
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Formatted{Type: core.TypeText, Content: string(raw)}
	}
	return Formatted{Type: core.TypeJSON, Content: parsed}
}

// asDataURL returns payload as a data URL. Strings that are not data URLs
// are taken to be base64 already.
func asDataURL(payload any, mediaType string) string {
	switch v := payload.(type) {
	case []byte:
		return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(v)
	case string:
		if strings.HasPrefix(v, "data:") {
			return v
		}
		return "data:" + mediaType + ";base64," + v
	default:
		return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString([]byte(textOf(v)))
	}
}

func textOf(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	data, err := marshal(payload, "")
	if err != nil {
		return fmt.Sprint(payload)
	}
	return string(data)
}

// Pretty renders f for the body and raw views. JSON is indented by two
// spaces.
func Pretty(f Formatted) string {
	if f.Type != core.TypeJSON {
		return textOf(f.Content)
	}
	data, err := marshal(f.Content, "  ")
	if err != nil {
		return textOf(f.Content)
	}
	return string(data)
}

func marshal(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func mediaType(contentType, fallback string) string {
	if contentType == "" {
		return fallback
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	return contentType
}

// Status classes reported by StatusClass.
const (
	ClassSuccess     = "success"
	ClassRedirect    = "redirect"
	ClassClientError = "client-error"
	ClassServerError = "server-error"
	ClassUnknown     = "unknown"
)

// StatusClass buckets an HTTP status for styling.
func StatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return ClassSuccess
	case status >= 300 && status < 400:
		return ClassRedirect
	case status >= 400 && status < 500:
		return ClassClientError
	case status >= 500:
		return ClassServerError
	default:
		return ClassUnknown
	}
}
