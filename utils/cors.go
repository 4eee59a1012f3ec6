package utils

import (
	"net/url"
	"strings"
	"sync"
)

var (
	allowedOriginsMu sync.RWMutex
	allowedOrigins   = map[string]struct{}{}
)

// SetAllowedOrigins replaces the set of explicitly trusted web origins.
// Entries are compared case-insensitively against the full Origin header
// value, e.g. "https://app.reelfeed.example".
func SetAllowedOrigins(origins []string) {
	next := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		origin = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(origin, "/")))
		if origin != "" {
			next[origin] = struct{}{}
		}
	}
	allowedOriginsMu.Lock()
	allowedOrigins = next
	allowedOriginsMu.Unlock()
}

// IsAllowedOrigin checks whether an Origin header value should be trusted.
// Localhost origins are always allowed so local frontend development works
// without configuration; anything else must be in the configured allowlist.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	hostname := parsed.Hostname()
	if hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1" {
		return true
	}

	allowedOriginsMu.RLock()
	defer allowedOriginsMu.RUnlock()
	_, ok := allowedOrigins[strings.ToLower(strings.TrimSuffix(origin, "/"))]
	return ok
}
