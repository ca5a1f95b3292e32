// Package tasks implements the Task Registry: every Git operation runs
// through a tracked task with a UUID identity, a Pending→Running→terminal
// state machine, a cancellation token, and a retry loop that honors the
// strategy override pipeline (spec.md §4.8).
package tasks

import "time"

// State is a task's position in its lifecycle.
type State string

const (
	Pending   State = "Pending"
	Running   State = "Running"
	Completed State = "Completed"
	Failed    State = "Failed"
	Canceled  State = "Canceled"
)

// Terminal reports whether state is one a task cannot leave.
func (s State) Terminal() bool {
	return s == Completed || s == Failed || s == Canceled
}

// Task is an immutable snapshot of one tracked operation. Snapshot/List
// always return copies, never references into the registry's internal
// state (spec.md §4.8).
type Task struct {
	ID        string
	Kind      string
	State     State
	CreatedAt time.Time
	Category  string
	Code      string
	Message   string
}
