package ippool

import (
	"context"
	"time"

	"github.com/fireworks/gitengine/internal/config"
	"github.com/fireworks/gitengine/internal/events"
)

// Maintain runs the periodic maintenance tick spec.md §4.3 describes:
// pruning expired non-preheat entries, enforcing the cache size ceiling,
// and emitting recovery events for IPs whose circuit-breaker cooldown has
// elapsed. Guarded by a CAS on lastPruneAtMs so overlapping timers (e.g. one
// per task worker) collapse into a single tick.
func (p *Pool) Maintain(now time.Time) {
	nowMs := now.UnixMilli()
	prev := p.lastPruneAtMs.Load()
	minIntervalMs := int64(1000)
	if nowMs-prev < minIntervalMs {
		return
	}
	if !p.lastPruneAtMs.CompareAndSwap(prev, nowMs) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ttlMs := int64(p.cfg.ScoreTtlSeconds) * 1000
	var oldest []struct {
		key key
		ts  int64
	}

	for k, entry := range p.cache {
		var kept []IpStat
		for _, s := range entry.stats {
			if !entry.preheat && ttlMs > 0 && nowMs-s.MeasuredAtMs > ttlMs {
				continue
			}
			if s.TrippedUntilMs > 0 && s.TrippedUntilMs <= nowMs && p.bus != nil {
				p.bus.Publish(events.New(events.FamilyStrategy, events.VariantIpPoolIpRecovered, events.Fields{
					"ip": s.IP, "host": k.host, "port": k.port,
				}))
				s.TrippedUntilMs = 0
			}
			kept = append(kept, s)
		}
		if entry.preheat {
			entry.stats = kept
			continue
		}
		if len(kept) == 0 {
			delete(p.cache, k)
			continue
		}
		entry.stats = kept
		var newest int64
		for _, s := range kept {
			if s.MeasuredAtMs > newest {
				newest = s.MeasuredAtMs
			}
		}
		oldest = append(oldest, struct {
			key key
			ts  int64
		}{k, newest})
	}

	if p.cfg.MaxCacheEntries > 0 && len(p.cache) > p.cfg.MaxCacheEntries {
		excess := len(p.cache) - p.cfg.MaxCacheEntries
		for i := 0; i < len(oldest) && excess > 0; i++ {
			for j := i + 1; j < len(oldest); j++ {
				if oldest[j].ts < oldest[i].ts {
					oldest[i], oldest[j] = oldest[j], oldest[i]
				}
			}
			if p.cache[oldest[i].key] != nil && !p.cache[oldest[i].key].preheat {
				delete(p.cache, oldest[i].key)
				excess--
			}
		}
	}
}

// Run drives Maintain from a ticker until ctx is done, then saves history
// and returns; callers run it in its own goroutine. This is the goroutine-and-context idiom the Go translation of spec.md
// §4.3's "periodically, guarded by CAS" maintenance loop takes.
func (p *Pool) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.saveHistory()
			return
		case t := <-ticker.C:
			p.Maintain(t)
		}
	}
}

// UpdateConfig hot-swaps the effective config, diffing old vs new and
// publishing IpPoolConfigUpdate. Disabling the pool clears the whole cache,
// preheat and on-demand entries alike, but keeps history on disk (spec.md §4.3).
func (p *Pool) UpdateConfig(newCfg config.IpPoolConfig) {
	p.mu.Lock()
	oldCfg := p.cfg
	p.cfg = newCfg
	p.filter = newCidrFilter(newCfg.Blacklist, newCfg.Whitelist)
	if oldCfg.Enabled && !newCfg.Enabled {
		p.cache = make(map[key]*cacheEntry)
	}
	p.mu.Unlock()

	if p.bus != nil {
		p.bus.Publish(events.New(events.FamilyStrategy, events.VariantIpPoolConfigUpdate, events.Fields{
			"enabled": newCfg.Enabled,
			"changed": configChanged(oldCfg, newCfg),
		}))
	}
}

func configChanged(a, b config.IpPoolConfig) []string {
	var changed []string
	if a.Enabled != b.Enabled {
		changed = append(changed, "enabled")
	}
	if a.ScoreTtlSeconds != b.ScoreTtlSeconds {
		changed = append(changed, "scoreTtlSeconds")
	}
	if a.MaxCacheEntries != b.MaxCacheEntries {
		changed = append(changed, "maxCacheEntries")
	}
	if a.AutoDisableThresholdPct != b.AutoDisableThresholdPct {
		changed = append(changed, "autoDisableThresholdPct")
	}
	return changed
}
