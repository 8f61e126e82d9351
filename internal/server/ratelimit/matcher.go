package ratelimit

import (
	"net/http"
	"strings"
)

// unlimited is returned for health checks and CORS preflights.
var unlimited = EndpointConfig{}

// MatchEndpoint returns the configuration for a request, or nil when none applies.
// Exact paths win over patterns. A pattern segment in braces ("/runs/{id}")
// matches any single segment, and an empty Method matches every method.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if (path == "/health" && method == http.MethodGet) || method == http.MethodOptions {
		ec := unlimited
		return &ec
	}

	for i := range configs {
		if configs[i].Path == path && methodMatches(configs[i].Method, method) {
			return &configs[i]
		}
	}
	for i := range configs {
		if methodMatches(configs[i].Method, method) && patternMatches(configs[i].Path, path) {
			return &configs[i]
		}
	}
	return nil
}

func methodMatches(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}

func patternMatches(pattern, path string) bool {
	if !strings.Contains(pattern, "{") {
		return false
	}
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(segs) {
		return false
	}
	for i, p := range ps {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			if segs[i] == "" {
				return false
			}
			continue
		}
		if p != segs[i] {
			return false
		}
	}
	return true
}
