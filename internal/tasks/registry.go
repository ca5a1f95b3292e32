package tasks

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fireworks/gitengine/internal/events"
)

type entry struct {
	task  Task
	token *CancellationToken
}

// Registry owns every task's lifecycle state. All Git operations are
// expected to run through Spawn rather than being invoked directly, so the
// registry is the single place lifecycle events are emitted from.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*entry
	bus   *events.Bus
}

// NewRegistry constructs an empty registry. bus may be nil to suppress
// event emission (used by tests that only care about state transitions).
func NewRegistry(bus *events.Bus) *Registry {
	return &Registry{tasks: make(map[string]*entry), bus: bus}
}

func (r *Registry) publish(e events.Event) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}

// Create assigns a fresh task id, stores it Pending, allocates a
// cancellation token, and emits Task::Created.
func (r *Registry) Create(kind string) (string, *CancellationToken) {
	id := uuid.NewString()
	token := NewCancellationToken()
	r.mu.Lock()
	r.tasks[id] = &entry{
		task:  Task{ID: id, Kind: kind, State: Pending, CreatedAt: time.Now()},
		token: token,
	}
	r.mu.Unlock()
	r.publish(events.TaskCreated(id, kind))
	return id, token
}

// Snapshot returns a cloned view of one task, or false if it doesn't exist.
func (r *Registry) Snapshot(id string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.tasks[id]
	if !ok {
		return Task{}, false
	}
	return e.task, true
}

// List returns a cloned view of every tracked task.
func (r *Registry) List() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Task, 0, len(r.tasks))
	for _, e := range r.tasks {
		out = append(out, e.task)
	}
	return out
}

// Cancel signals the task's cancellation token and returns true if the id
// exists at all, even if the task has already reached a terminal state
// (spec.md §4.8: cancel is a no-op on a terminal task, but still reports
// found).
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	e, ok := r.tasks[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	e.token.Cancel()
	return true
}

// SetStateNoEmit is a test-only direct state mutation, bypassing lifecycle
// events entirely.
func (r *Registry) SetStateNoEmit(id string, state State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.tasks[id]; ok {
		e.task.State = state
	}
}

func (r *Registry) setRunning(id, kind string) {
	r.mu.Lock()
	if e, ok := r.tasks[id]; ok {
		e.task.State = Running
	}
	r.mu.Unlock()
	r.publish(events.TaskStarted(id, kind))
}

func (r *Registry) setTerminal(id string, state State, category, code, message string) {
	r.mu.Lock()
	e, ok := r.tasks[id]
	if ok {
		e.task.State = state
		e.task.Category = category
		e.task.Code = code
		e.task.Message = message
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	switch state {
	case Completed:
		r.publish(events.TaskCompleted(id))
	case Canceled:
		r.publish(events.TaskCanceled(id))
	case Failed:
		r.publish(events.TaskFailed(id, category, code, message))
	}
}
