package events

import "sync"

// Bus is an ordered, in-memory append log of events. Publish is a small
// critical section; there is no back-pressure and no bounded size — tests
// that need isolation install their own Bus via SetTestBus.
type Bus struct {
	mu  sync.Mutex
	log []Event
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Publish appends an event to the log. It never blocks on a subscriber
// because there are no subscribers — callers read via Snapshot/TakeAll.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	b.log = append(b.log, e)
	b.mu.Unlock()
}

// Snapshot returns a cloned view of the current log.
func (b *Bus) Snapshot() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.log))
	copy(out, b.log)
	return out
}

// TakeAll atomically drains the log, returning everything published so far
// and leaving the bus empty.
func (b *Bus) TakeAll() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.log
	b.log = nil
	return out
}

var (
	globalOnce sync.Once
	global     *Bus

	testMu   sync.Mutex
	testBus  *Bus
)

// Global returns the process-wide singleton bus, unless a test bus has been
// installed via SetTestBus, in which case that one is returned instead.
func Global() *Bus {
	testMu.Lock()
	tb := testBus
	testMu.Unlock()
	if tb != nil {
		return tb
	}
	globalOnce.Do(func() { global = NewBus() })
	return global
}

// SetTestBus installs a bus that Global() returns instead of the real
// singleton. Production code must never depend on this outside tests.
func SetTestBus(b *Bus) {
	testMu.Lock()
	testBus = b
	testMu.Unlock()
}

// ResetTestBus clears the test override, restoring Global() to the real
// singleton.
func ResetTestBus() {
	testMu.Lock()
	testBus = nil
	testMu.Unlock()
}
