package executor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/postboy/postboy/pkg/core"
)

var zstdDecoder, _ = zstd.NewReader(nil)

// ReadBody reads resp.Body and undoes its Content-Encoding.
func ReadBody(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.Uncompressed {
		return data, nil
	}
	return Decode(data, resp.Header.Get("Content-Encoding"))
}

// Decode decompresses data per a Content-Encoding value. Unknown encodings
// are returned untouched.
func Decode(data []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		z, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode gzip body: %w", err)
		}
		defer func() { _ = z.Close() }()
		return io.ReadAll(z)
	case "br":
		out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("failed to decode brotli body: %w", err)
		}
		return out, nil
	case "zstd":
		out, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decode zstd body: %w", err)
		}
		return out, nil
	default:
		return data, nil
	}
}

// IsBinaryContentType reports whether a payload of this type is carried as
// bytes rather than text.
func IsBinaryContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "image/") ||
		strings.HasPrefix(ct, "application/octet-stream") ||
		strings.HasPrefix(ct, "application/pdf")
}

// TypeHint maps a content type to a rendering hint.
func TypeHint(contentType string) core.ResponseType {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "application/pdf"):
		return core.TypePDF
	case strings.HasPrefix(ct, "image/"):
		return core.TypeImage
	case strings.Contains(ct, "application/json"):
		return core.TypeJSON
	case strings.Contains(ct, "text/html"):
		return core.TypeHTML
	default:
		return core.TypeText
	}
}

// DataURL encodes data as a base64 data URL of the given media type.
func DataURL(contentType string, data []byte) string {
	mediaType := contentType
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = mt
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// FlattenHeaders lowercases header names and joins repeated values.
func FlattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}

// StatusText returns the reason phrase the server sent, or the standard one.
func StatusText(resp *http.Response) string {
	if _, reason, ok := strings.Cut(resp.Status, " "); ok && reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}
