// Package util holds small helpers shared by outbound HTTP clients.
package util

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// NewProxyFunc returns the proxy selector for the oracle and document clients.
// Without explicit proxy URLs it falls back to the HTTP_PROXY family of
// environment variables. Hosts matching noProxy (comma separated, "*" for all,
// ".example.com" or "example.com" for a domain and its subdomains) bypass the proxy.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	bypass := parseNoProxy(noProxy)
	return func(req *http.Request) (*url.URL, error) {
		if bypass(req.URL.Hostname()) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return nil, nil
	}
}

func parseNoProxy(noProxy string) func(host string) bool {
	var patterns []string
	for _, p := range strings.Split(noProxy, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if h, _, err := net.SplitHostPort(p); err == nil {
			p = h
		}
		patterns = append(patterns, p)
	}

	return func(host string) bool {
		host = strings.ToLower(host)
		for _, p := range patterns {
			switch {
			case p == "*":
				return true
			case host == strings.TrimPrefix(p, "."):
				return true
			case strings.HasSuffix(host, "."+strings.TrimPrefix(p, ".")):
				return true
			}
		}
		return false
	}
}
