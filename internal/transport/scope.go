package transport

import (
	"context"
	"sync"
	"time"

	gerrors "github.com/fireworks/gitengine/internal/errors"
)

// AttemptTiming records how long a single stage attempt took.
type AttemptTiming struct {
	Stage    Stage
	Duration time.Duration
	Category gerrors.Category // zero value if the attempt succeeded
}

// Scope is the request-scoped replacement for the two thread-locals spec.md
// §4.5 describes (`fallback_events`, `timing`). A Go HTTP round trip has no
// stable "current thread" to stash state on, so the per-attempt history is
// carried on a *Scope threaded through context.Context instead: a caller
// creates one per Git operation with NewScope, passes it down via WithScope
// and reads it back with Snapshot. The task workers in internal/tasks do not
// attach a Scope, so their transport calls record no history.
type Scope struct {
	mu          sync.Mutex
	Transitions []Transition
	Attempts    []AttemptTiming
	Start       time.Time
}

// NewScope starts a fresh scope, recording its own creation time as the
// timing baseline.
func NewScope() *Scope {
	return &Scope{Start: time.Now()}
}

func (s *Scope) recordTransition(t Transition) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.Transitions = append(s.Transitions, t)
	s.mu.Unlock()
}

func (s *Scope) recordAttempt(stage Stage, d time.Duration, cat gerrors.Category) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.Attempts = append(s.Attempts, AttemptTiming{Stage: stage, Duration: d, Category: cat})
	s.mu.Unlock()
}

// Snapshot returns a copy of the scope's recorded transitions and attempt
// timings, as the worker would at attempt end.
func (s *Scope) Snapshot() ([]Transition, []AttemptTiming) {
	if s == nil {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	transitions := make([]Transition, len(s.Transitions))
	copy(transitions, s.Transitions)
	attempts := make([]AttemptTiming, len(s.Attempts))
	copy(attempts, s.Attempts)
	return transitions, attempts
}

type scopeKeyType struct{}

var scopeKey = scopeKeyType{}

// WithScope attaches a Scope to ctx, replacing the worker-reset thread-local
// pair at attempt start.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey, s)
}

// ScopeFrom retrieves the Scope attached to ctx, or nil if none was attached
// — transport calls made outside a task worker (e.g. ad-hoc requests) simply
// skip history recording.
func ScopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey).(*Scope)
	return s
}
