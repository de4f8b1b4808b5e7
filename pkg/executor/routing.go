package executor

import (
	"fmt"
	"net/url"
	"strings"
)

// Route is where a request is sent.
type Route int

const (
	RouteProxy Route = iota
	RouteDirect
)

func (r Route) String() string {
	if r == RouteDirect {
		return "direct"
	}
	return "proxy"
}

// RoutingPolicy picks a route for a fully built target URL.
type RoutingPolicy interface {
	Route(target *url.URL) Route
}

// ProxyAll sends every request through the proxy.
type ProxyAll struct{}

func (ProxyAll) Route(*url.URL) Route { return RouteProxy }

// OriginAllowList sends requests to the listed origins directly and
// everything else through the proxy.
type OriginAllowList struct {
	origins map[string]struct{}
}

// NewOriginAllowList builds a policy from scheme://host[:port] origins.
func NewOriginAllowList(origins ...string) (*OriginAllowList, error) {
	p := &OriginAllowList{origins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		if strings.TrimSpace(o) == "" {
			continue
		}
		u, err := url.Parse(strings.TrimSpace(o))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid origin %q: expected scheme://host[:port]", o)
		}
		p.origins[origin(u)] = struct{}{}
	}
	return p, nil
}

func (p *OriginAllowList) Route(target *url.URL) Route {
	if target == nil {
		return RouteProxy
	}
	if _, ok := p.origins[origin(target)]; ok {
		return RouteDirect
	}
	return RouteProxy
}

// origin normalizes u to scheme://host[:port] with default ports dropped.
func origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}
	return scheme + "://" + host
}
