package ippool

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fireworks/gitengine/internal/config"
	"github.com/fireworks/gitengine/internal/events"
)

// SelectionKind distinguishes a cached, scored candidate from the plain
// "let the standard library resolve it" fallback.
type SelectionKind int

const (
	SystemDefault SelectionKind = iota
	Cached
)

// Selection is the result of PickBest.
type Selection struct {
	Host string
	Port int
	Kind SelectionKind
	Stat *IpStat // nil for SystemDefault
}

// Outcome is what a caller reports back after using a Selection.
type Outcome int

const (
	Success Outcome = iota
	Failure
)

type cacheEntry struct {
	stats   []IpStat
	preheat bool
}

// sampleCall is one in-flight on-demand sampling job, shared by every
// PickBest call racing for the same key (spec.md §4.3's singleflight
// requirement).
type sampleCall struct {
	done  chan struct{}
	stats []IpStat
}

// Pool maintains, scores and dispenses IP candidates per (host, port).
type Pool struct {
	cfg       config.IpPoolConfig
	bus       *events.Bus
	filter    *cidrFilter
	aggregate *aggregateWindow

	mu    sync.Mutex
	cache map[key]*cacheEntry

	historyMu   sync.RWMutex
	history     map[key][]IpStat
	historyPath string

	inflightMu sync.Mutex
	inflight   map[key]*sampleCall

	lastPruneAtMs atomic.Int64
}

// NewPool constructs a Pool from config, loading any persisted history.
func NewPool(cfg config.IpPoolConfig, bus *events.Bus) *Pool {
	p := &Pool{
		cfg:         cfg,
		bus:         bus,
		filter:      newCidrFilter(cfg.Blacklist, cfg.Whitelist),
		aggregate:   newAggregateWindow(cfg.AutoDisableThresholdPct, int64(cfg.AutoDisableCooldownSec)*1000),
		cache:       make(map[key]*cacheEntry),
		history:     make(map[key][]IpStat),
		historyPath: cfg.HistoryPath,
		inflight:    make(map[key]*sampleCall),
	}
	p.loadHistory()
	return p
}

func isPreheat(cfg config.IpPoolConfig, host string, port int) bool {
	for _, d := range cfg.PreheatDomains {
		if d.Host != host {
			continue
		}
		if len(d.Ports) == 0 {
			return true
		}
		for _, pp := range d.Ports {
			if int(pp) == port {
				return true
			}
		}
	}
	return false
}

// PickBest implements spec.md §4.3's selection algorithm.
func (p *Pool) PickBest(ctx context.Context, host string, port int) (Selection, error) {
	nowMs := time.Now().UnixMilli()

	if !p.cfg.Enabled || p.aggregate.isDisabled(nowMs) {
		return Selection{Host: host, Port: port, Kind: SystemDefault}, nil
	}

	k := key{host: host, port: port}
	preheat := isPreheat(p.cfg, host, port)

	if preheat {
		if sel, ok := p.bestFromCache(k, nowMs); ok {
			return sel, nil
		}
	}

	stats, err := p.sampleOnce(ctx, k, host, port, nowMs)
	if err != nil || len(stats) == 0 {
		return Selection{Host: host, Port: port, Kind: SystemDefault}, nil
	}

	p.mu.Lock()
	p.cache[k] = &cacheEntry{stats: stats, preheat: preheat}
	p.mu.Unlock()

	if sel, ok := p.bestFromCache(k, nowMs); ok {
		return sel, nil
	}
	return Selection{Host: host, Port: port, Kind: SystemDefault}, nil
}

func (p *Pool) bestFromCache(k key, nowMs int64) (Selection, bool) {
	p.mu.Lock()
	entry, ok := p.cache[k]
	p.mu.Unlock()
	if !ok {
		return Selection{}, false
	}

	ttlMs := int64(p.cfg.ScoreTtlSeconds) * 1000
	var best *IpStat
	for i := range entry.stats {
		s := &entry.stats[i]
		if ttlMs > 0 && nowMs-s.MeasuredAtMs > ttlMs {
			continue
		}
		if s.IsBroken(nowMs) {
			continue
		}
		if best == nil || s.LatencyMS < best.LatencyMS {
			best = s
		}
	}
	if best == nil {
		return Selection{}, false
	}
	return Selection{Host: k.host, Port: k.port, Kind: Cached, Stat: best}, true
}

// sampleOnce runs the bounded-concurrency, singleflight-shared sampling job
// that merges the enabled sources, filters by CIDR, and TCP-probes each
// surviving candidate.
func (p *Pool) sampleOnce(ctx context.Context, k key, host string, port int, nowMs int64) ([]IpStat, error) {
	p.inflightMu.Lock()
	if call, ok := p.inflight[k]; ok {
		p.inflightMu.Unlock()
		<-call.done
		return call.stats, nil
	}
	call := &sampleCall{done: make(chan struct{})}
	p.inflight[k] = call
	p.inflightMu.Unlock()

	defer func() {
		p.inflightMu.Lock()
		delete(p.inflight, k)
		p.inflightMu.Unlock()
		close(call.done)
	}()

	timeout := time.Duration(p.cfg.SingleflightTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	sampleCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	candidates := mergeCandidates(
		builtinCandidates(host, port),
		dnsCandidates(sampleCtx, host, port),
		p.historyCandidates(host, port),
		userStaticCandidates(host, port, p.cfg.UserStatic),
		fallbackCandidate(sampleCtx, host, port),
	)

	var filtered []IpStat
	for _, c := range candidates {
		allowed, listType, cidr := p.filter.allow(c.IP)
		if !allowed {
			if p.bus != nil {
				p.bus.Publish(events.New(events.FamilyStrategy, events.VariantIpPoolCidrFilter, events.Fields{
					"ip": c.IP, "listType": string(listType), "cidr": cidr,
				}))
			}
			continue
		}
		filtered = append(filtered, c)
	}

	probeTimeout := time.Duration(p.cfg.ProbeTimeoutMs) * time.Millisecond
	if probeTimeout <= 0 {
		probeTimeout = 500 * time.Millisecond
	}
	probed := probeAll(sampleCtx, filtered, port, probeTimeout, p.cfg.MaxParallelProbes, nowMs)
	sort.Slice(probed, func(i, j int) bool { return probed[i].LatencyMS < probed[j].LatencyMS })

	call.stats = probed
	if p.bus != nil {
		p.bus.Publish(events.New(events.FamilyStrategy, events.VariantIpPoolRefresh, events.Fields{
			"host": host, "port": port, "candidates": len(probed),
		}))
	}
	return probed, nil
}

// ReportOutcome folds a usage result back into the pool's circuit breaker
// and the aggregate auto-disable window (spec.md §4.3).
func (p *Pool) ReportOutcome(sel Selection, outcome Outcome) {
	nowMs := time.Now().UnixMilli()

	if tripped, untilMs := p.aggregate.record(outcome == Success, nowMs); tripped {
		if p.bus != nil {
			p.bus.Publish(events.New(events.FamilyStrategy, events.VariantIpPoolAutoDisable, events.Fields{
				"reason": "aggregate failure rate exceeded threshold", "untilMs": untilMs,
			}))
		}
	}

	if sel.Kind != Cached || sel.Stat == nil {
		return
	}

	k := key{host: sel.Host, port: sel.Port}
	p.mu.Lock()
	entry, ok := p.cache[k]
	p.mu.Unlock()
	if !ok {
		return
	}
	for i := range entry.stats {
		if entry.stats[i].IP != sel.Stat.IP {
			continue
		}
		if outcome == Success {
			if recordSuccess(&entry.stats[i], nowMs) && p.bus != nil {
				p.bus.Publish(events.New(events.FamilyStrategy, events.VariantIpPoolIpRecovered, events.Fields{
					"ip": entry.stats[i].IP, "host": sel.Host, "port": sel.Port,
				}))
			}
		} else {
			threshold := p.cfg.CircuitBreakerThreshold
			if threshold <= 0 {
				threshold = 3
			}
			cooldownMs := int64(p.cfg.CircuitBreakerCooldownSec) * 1000
			if cooldownMs <= 0 {
				cooldownMs = 30_000
			}
			if recordFailure(&entry.stats[i], nowMs, threshold, cooldownMs) && p.bus != nil {
				p.bus.Publish(events.New(events.FamilyStrategy, events.VariantIpPoolIpTripped, events.Fields{
					"ip": entry.stats[i].IP, "host": sel.Host, "port": sel.Port,
				}))
			}
		}
		break
	}
}
