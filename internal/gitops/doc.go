// Package gitops is a thin wrapper over go-git that implements the
// internal/tasks.GitOperations contract: clone, fetch and push, each
// honoring cancellation, emitting Task::Progress phases, and falling back
// cleanly when a partial-clone filter can't be honored.
package gitops
