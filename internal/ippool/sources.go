package ippool

import (
	"context"
	"net"

	"github.com/fireworks/gitengine/internal/config"
	"github.com/fireworks/gitengine/internal/util/sets"
)

// builtinCandidates returns the curated, compiled-in address list for a
// host. This engine ships none by default — the builtin source exists as
// an extension point operators can populate via a future config field;
// until then it always returns empty, same as a disabled source.
func builtinCandidates(host string, port int) []IpStat {
	return nil
}

// dnsCandidates resolves host via the OS resolver.
func dnsCandidates(ctx context.Context, host string, port int) []IpStat {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil
	}
	out := make([]IpStat, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, IpStat{IP: a.IP.String(), Port: port, Sources: sets.New(SourceDns)})
	}
	return out
}

// userStaticCandidates reads operator-supplied IPs from config.
func userStaticCandidates(host string, port int, entries []config.UserStaticEntry) []IpStat {
	var out []IpStat
	for _, e := range entries {
		if e.Host != host {
			continue
		}
		if len(e.Ports) > 0 {
			matched := false
			for _, p := range e.Ports {
				if int(p) == port {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, IpStat{IP: e.IP, Port: port, Sources: sets.New(SourceUserStatic)})
	}
	return out
}

// historyCandidates returns the persisted best-stat entries for a key, read
// from the on-disk history file already loaded into the Pool.
func (p *Pool) historyCandidates(host string, port int) []IpStat {
	p.historyMu.RLock()
	defer p.historyMu.RUnlock()
	entries, ok := p.history[key{host: host, port: port}]
	if !ok {
		return nil
	}
	out := make([]IpStat, len(entries))
	for i, e := range entries {
		c := e
		c.Sources = sets.New(SourceHistory)
		out[i] = c
	}
	return out
}

// fallbackCandidate always resolves the literal host via DNS as the
// always-last default, distinct from the Dns source so callers can tell
// "we tried everything else and fell back" from "DNS was one of several
// sources we tried".
func fallbackCandidate(ctx context.Context, host string, port int) []IpStat {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		return nil
	}
	return []IpStat{{IP: addrs[0].IP.String(), Port: port, Sources: sets.New(SourceFallback)}}
}
