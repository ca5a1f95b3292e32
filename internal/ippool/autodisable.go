package ippool

import "sync"

// aggregateWindow tracks the pool-wide failure rate across all reported
// outcomes (spec.md §4.3's Auto-disable), distinct from the per-IP circuit
// breaker: this one disables the whole pool, not a single address.
type aggregateWindow struct {
	mu            sync.Mutex
	total         int
	failures      int
	thresholdPct  int
	cooldownMs    int64
	disabledUntil int64
	disabled      bool
}

func newAggregateWindow(thresholdPct int, cooldownMs int64) *aggregateWindow {
	return &aggregateWindow{thresholdPct: thresholdPct, cooldownMs: cooldownMs}
}

// record folds one outcome into the window, returning (true, untilMs) when
// this observation is the one that crosses the threshold, else (false, 0).
func (w *aggregateWindow) record(success bool, nowMs int64) (tripped bool, untilMs int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.total++
	if !success {
		w.failures++
	}
	if !w.disabled && w.total >= 10 && w.failures*100 >= w.thresholdPct*w.total {
		w.disabled = true
		w.disabledUntil = nowMs + w.cooldownMs
		return true, w.disabledUntil
	}
	return false, 0
}

func (w *aggregateWindow) isDisabled(nowMs int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.disabled {
		return false
	}
	if nowMs >= w.disabledUntil {
		w.disabled = false
		w.total, w.failures = 0, 0
		return false
	}
	return true
}
