package tasks

import "sync"

// CancellationToken is a single-shot, idempotent cancellation signal. Cancel
// may be called any number of times from any goroutine; only the first call
// has an effect.
type CancellationToken struct {
	once sync.Once
	ch   chan struct{}
}

// NewCancellationToken returns a token in the not-canceled state.
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{ch: make(chan struct{})}
}

// Cancel signals the token. Idempotent.
func (t *CancellationToken) Cancel() {
	t.once.Do(func() { close(t.ch) })
}

// Canceled reports whether Cancel has been called.
func (t *CancellationToken) Canceled() bool {
	select {
	case <-t.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel closed exactly when Cancel is called, for
// interruptible sleeps and selects.
func (t *CancellationToken) Done() <-chan struct{} {
	return t.ch
}
