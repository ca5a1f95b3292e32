package transport

import (
	"sync"
	"time"
)

// autoDisableWindow is the sliding window counter spec.md §4.5 describes:
// `{total, failures}` of fake-stage attempts, tripping a cooldown-gated
// runtime disable once both the minimum sample size and the failure-rate
// threshold are crossed.
type autoDisableWindow struct {
	mu             sync.Mutex
	total          int
	failures       int
	minSamples     int
	thresholdPct   int
	cooldown       time.Duration
	disabledUntil  time.Time
	wasDisabled    bool
}

func newAutoDisableWindow(minSamples, thresholdPct int, cooldown time.Duration) *autoDisableWindow {
	return &autoDisableWindow{minSamples: minSamples, thresholdPct: thresholdPct, cooldown: cooldown}
}

// record folds one fake-stage attempt's outcome into the window. Returns
// (tripped, recovered): tripped is true the instant the window crosses the
// threshold and disables; recovered is true the instant a success lands at
// or after the cooldown deadline.
func (w *autoDisableWindow) record(success bool, now time.Time) (tripped bool, recovered bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.wasDisabled && success && !now.Before(w.disabledUntil) {
		w.wasDisabled = false
		w.total, w.failures = 0, 0
		return false, true
	}

	w.total++
	if !success {
		w.failures++
	}
	if !w.wasDisabled && w.total >= w.minSamples && w.failures*100 >= w.thresholdPct*w.total {
		w.wasDisabled = true
		w.disabledUntil = now.Add(w.cooldown)
		return true, false
	}
	return false, false
}

// isDisabled reports whether fake-SNI attempts are currently suppressed.
func (w *autoDisableWindow) isDisabled(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wasDisabled && now.Before(w.disabledUntil)
}
