// Package tlsverify wraps Go's standard TLS certificate verification with a
// SAN whitelist and an SPKI pin set, and records the fingerprint bundle the
// adaptive transport folds into its events.
package tlsverify

import "strings"

// SanWhitelist is a set of domain patterns a leaf certificate must match at
// least one of. An empty whitelist rejects everything (spec.md §4.4).
type SanWhitelist []string

// Matches reports whether host satisfies at least one pattern in the
// whitelist.
func (w SanWhitelist) Matches(host string) bool {
	if len(w) == 0 {
		return false
	}
	for _, pattern := range w {
		if MatchDomain(pattern, host) {
			return true
		}
	}
	return false
}

// MatchDomain implements one-level wildcard matching: "*.github.com"
// matches "api.github.com" but not "github.com" itself or
// "a.b.github.com". Comparison is case-insensitive.
func MatchDomain(pattern, host string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	host = strings.ToLower(strings.TrimSpace(host))
	if pattern == "" || host == "" {
		return false
	}
	if !strings.HasPrefix(pattern, "*.") {
		return pattern == host
	}
	suffix := pattern[1:] // ".github.com"
	if !strings.HasSuffix(host, suffix) {
		return false
	}
	prefix := strings.TrimSuffix(host, suffix)
	if prefix == "" {
		return false // "github.com" does not match "*.github.com"
	}
	return !strings.Contains(prefix, ".") // reject "a.b.github.com"
}
