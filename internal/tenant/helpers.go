// internal/tenant/helpers.go
//
// Host helpers shared across resolver, cache, middleware, and tests.
//
// Context
// -------
//   - `NormalizeHost` turns a raw Host header into the lookup key: trimmed,
//     lower-cased, port stripped (IPv6 literals included), trailing dot
//     removed.  `www.` is kept; domains match exactly as stored.
//
//   - `lookupHost` maps the literal host "localhost" to the configured dev
//     alias so local instances can masquerade as any real tenant.
//
// Notes
// -----
// No logging here; caller decides what to log.
package tenant

import (
	"net"
	"strings"
)

// NormalizeHost canonicalises a Host header value.
func NormalizeHost(raw string) string {
	h := strings.ToLower(strings.TrimSpace(raw))
	if h == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(h); err == nil {
		h = host
	} else if strings.HasPrefix(h, "[") && strings.HasSuffix(h, "]") {
		h = h[1 : len(h)-1]
	}
	return strings.TrimSuffix(h, ".")
}

// lookupHost returns the host used for resolution.  Only "localhost" is
// rewritten, and only when an alias is configured.
func lookupHost(h, alias string) string {
	if h == "localhost" && alias != "" {
		return NormalizeHost(alias)
	}
	return h
}
