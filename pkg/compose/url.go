// Package compose builds outgoing requests from composer state: query
// parameters, URL, header map and the typed body.
package compose

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/postboy/postboy/pkg/core"
)

// ErrNotAbsolute is returned for URLs without a scheme or host.
var ErrNotAbsolute = errors.New("URL must be absolute (scheme://host/...)")

// ParseAbsolute parses raw and requires a scheme and host.
func ParseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: %w", raw, ErrNotAbsolute)
	}
	return u, nil
}

// ParseURLQuery returns the query string of raw as enabled pairs in the
// order they appear. A URL that cannot be parsed yields no pairs.
func ParseURLQuery(raw string) []core.KeyValuePair {
	u, err := ParseAbsolute(raw)
	if err != nil {
		return []core.KeyValuePair{}
	}

	pairs := []core.KeyValuePair{}
	for _, segment := range strings.Split(u.RawQuery, "&") {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		pairs = append(pairs, core.NewPair(unescapeLenient(key), unescapeLenient(value)))
	}
	return pairs
}

// unescapeLenient decodes s, keeping malformed escapes such as "50%" as
// literal text.
func unescapeLenient(s string) string {
	if out, err := url.QueryUnescape(s); err == nil {
		return out
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			sb.WriteByte(' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			sb.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	}
	return c - '0'
}

// EffectiveQuery picks the parameter list a send uses. When the URL carries
// its own query string, that list replaces params entirely.
func EffectiveQuery(raw string, params []core.KeyValuePair) []core.KeyValuePair {
	if parsed := ParseURLQuery(raw); len(parsed) > 0 {
		return parsed
	}
	return params
}

// BuildURL returns raw with its query string rebuilt from the active params,
// in order.
func BuildURL(raw string, params []core.KeyValuePair) (string, error) {
	u, err := ParseAbsolute(raw)
	if err != nil {
		return "", err
	}

	u.RawQuery = EncodePairs(params)
	u.ForceQuery = false
	return u.String(), nil
}

// EncodePairs form-encodes the active pairs, keeping duplicates and order.
func EncodePairs(pairs []core.KeyValuePair) string {
	var sb strings.Builder
	for _, p := range core.ActivePairs(pairs) {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}
