package tasks

import (
	"context"

	"github.com/fireworks/gitengine/internal/events"
	"github.com/fireworks/gitengine/internal/strategy"
)

// ClonePlan is the input to a clone operation (spec.md §4.9).
type ClonePlan struct {
	URL    string
	Dest   string
	Depth  int
	Filter string
}

// FetchPlan is the input to a fetch operation. An empty RepoOrURL means
// "default remote".
type FetchPlan struct {
	RepoOrURL string
	Dest      string
	Depth     int
	Filter    string
}

// Credentials carries push authentication; the gitops client passes it to
// go-git as HTTP basic auth in the push options.
type Credentials struct {
	Username string
	Password string
}

// PushPlan is the input to a push operation. Empty Remote defaults to
// "origin"; empty Refspecs pushes the current branch.
type PushPlan struct {
	Dest     string
	Remote   string
	Refspecs []string
	Creds    *Credentials
}

// GitOperations is the thin native-Git-library wrapper the registry drives.
// Defined here, at the consumer, so internal/gitops can implement it without
// the registry importing a concrete Git library. taskID/bus let an
// implementation publish task-scoped Transport events (partial-filter
// fallback) without the registry needing to know about them in advance.
type GitOperations interface {
	Clone(ctx context.Context, taskID string, bus *events.Bus, plan ClonePlan, eff strategy.Effective, token *CancellationToken, progress ProgressFunc) error
	Fetch(ctx context.Context, taskID string, bus *events.Bus, plan FetchPlan, eff strategy.Effective, token *CancellationToken, progress ProgressFunc) error
	Push(ctx context.Context, taskID string, bus *events.Bus, plan PushPlan, eff strategy.Effective, token *CancellationToken, progress ProgressFunc) error
}
