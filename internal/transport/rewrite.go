package transport

import (
	"hash/fnv"
	"strings"
	"sync"

	"github.com/fireworks/gitengine/internal/config"
)

// Rewrite is the per-request decision produced by decideRewrite (spec.md
// §4.5).
type Rewrite struct {
	NewSNI   string
	UsedFake bool
}

// stickySNI remembers the last SNI that worked for a host, so repeat
// requests to the same host don't re-sample a fresh fake host every time.
type stickySNI struct {
	mu sync.Mutex
	m  map[string]string
}

func newStickySNI() *stickySNI {
	return &stickySNI{m: make(map[string]string)}
}

func (s *stickySNI) get(host string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[host]
}

func (s *stickySNI) set(host, sni string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[host] = sni
}

// inWhitelist reports whether host matches one of the configured
// fake-SNI-eligible hosts (exact, case-insensitive match — the fake-SNI
// host list is an explicit allowlist, not a wildcard pattern set like the
// SAN whitelist).
func inWhitelist(host string, hosts []string) bool {
	host = strings.ToLower(host)
	for _, h := range hosts {
		if strings.ToLower(h) == host {
			return true
		}
	}
	return false
}

// rolloutSample deterministically decides whether host falls within the
// rollout percentage, using an FNV hash so the same host always samples the
// same way within a single rollout percentage (stable across retries of the
// same request, unlike a fresh random roll per attempt).
func rolloutSample(host string, percent int) bool {
	if percent >= 100 {
		return true
	}
	if percent <= 0 {
		return false
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(host))
	return int(h.Sum32()%100) < percent
}

// pickFakeSNI chooses a fake SNI value from the configured pool, excluding
// the real host itself. Falls back to the real host name if no other
// candidate exists (the caller then treats the rewrite as a no-op).
func pickFakeSNI(host string, pool []string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(host))
	idx := int(h.Sum32())
	var candidates []string
	for _, p := range pool {
		if !strings.EqualFold(p, host) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return host
	}
	if idx < 0 {
		idx = -idx
	}
	return candidates[idx%len(candidates)]
}

// FakeSniEligible reports whether host is policy-eligible for fake-SNI
// rewriting under cfg — the same enabled/proxy/whitelist/rollout checks
// decideRewrite applies, minus the live transport's auto-disable and sticky
// state, which aren't known until a request is actually attempted. Callers
// that only need to know whether a task's target host could ever use fake
// SNI (to decide whether an AdaptiveTlsRollout event is warranted at all)
// use this instead of reaching into the transport.
func FakeSniEligible(cfg config.Config, host string) bool {
	if !cfg.Http.FakeSniEnabled {
		return false
	}
	if cfg.Proxy.Active() {
		return false
	}
	if !inWhitelist(host, cfg.Http.FakeSniHosts) {
		return false
	}
	return rolloutSample(host, cfg.Http.FakeSniRolloutPercent)
}

// decideRewrite implements spec.md §4.5's URL rewrite decision: given the
// request host, global policy, proxy presence and auto-disable state,
// produce the Rewrite this request should attempt.
func (t *AdaptiveTransport) decideRewrite(host string, autoDisabled bool) Rewrite {
	if !t.cfg.Http.FakeSniEnabled {
		return Rewrite{NewSNI: host}
	}
	if t.cfg.Proxy.Active() {
		return Rewrite{NewSNI: host}
	}
	if autoDisabled {
		return Rewrite{NewSNI: host}
	}
	if !inWhitelist(host, t.cfg.Http.FakeSniHosts) {
		return Rewrite{NewSNI: host}
	}
	if !rolloutSample(host, t.cfg.Http.FakeSniRolloutPercent) {
		return Rewrite{NewSNI: host}
	}
	sni := t.sticky.get(host)
	if sni == "" {
		sni = pickFakeSNI(host, t.cfg.Http.FakeSniHosts)
	}
	if sni == host {
		return Rewrite{NewSNI: host}
	}
	return Rewrite{NewSNI: sni, UsedFake: true}
}
