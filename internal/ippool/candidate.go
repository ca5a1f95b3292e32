// Package ippool maintains, scores, and dispenses IP candidates per
// (host, port), merging five independent candidate sources behind a
// per-IP circuit breaker and an aggregate auto-disable window (spec.md
// §4.3).
package ippool

import "github.com/fireworks/gitengine/internal/util/sets"

// Source names an origin that contributed a candidate address.
type Source string

const (
	SourceBuiltin    Source = "builtin"
	SourceDns        Source = "dns"
	SourceHistory    Source = "history"
	SourceUserStatic Source = "userStatic"
	SourceFallback   Source = "fallback"
)

// IpStat is one scored candidate address for a (host, port) key.
type IpStat struct {
	IP                  string
	Port                int
	Sources             sets.Set[Source]
	LatencyMS           float64
	MeasuredAtMs        int64
	ConsecutiveFailures int
	TrippedUntilMs      int64
}

// IsBroken reports whether the circuit breaker currently excludes this IP.
func (s *IpStat) IsBroken(nowMs int64) bool {
	return s.TrippedUntilMs > nowMs
}

// key identifies a (host, port) cache bucket.
type key struct {
	host string
	port int
}

// mergeCandidates unions candidates discovered across sources, combining
// the Sources set for addresses that appear more than once (spec.md §4.3's
// "an address appearing in multiple sources carries the set of
// contributing sources").
func mergeCandidates(groups ...[]IpStat) []IpStat {
	byIP := make(map[string]*IpStat)
	var order []string
	for _, group := range groups {
		for _, cand := range group {
			existing, ok := byIP[cand.IP]
			if !ok {
				c := cand
				if c.Sources == nil {
					c.Sources = sets.New[Source]()
				}
				byIP[cand.IP] = &c
				order = append(order, cand.IP)
				continue
			}
			for src := range cand.Sources {
				existing.Sources.Add(src)
			}
		}
	}
	out := make([]IpStat, 0, len(order))
	for _, ip := range order {
		out = append(out, *byIP[ip])
	}
	return out
}
