package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/url"

	"github.com/fireworks/gitengine/internal/config"
	gerrors "github.com/fireworks/gitengine/internal/errors"
	"github.com/fireworks/gitengine/internal/events"
	"github.com/fireworks/gitengine/internal/strategy"
	"github.com/fireworks/gitengine/internal/transport"
)

// spawnGit dispatches kind on a fresh goroutine (the "blocking worker pool"
// of spec.md §4.8 — Go's scheduler is the pool; each task owns one
// goroutine for its lifetime rather than borrowing from a fixed-size
// channel-dispatched set, since Git operations block on network I/O for
// seconds to minutes and a bounded pool would just queue them behind each
// other for no benefit). It parses and applies the strategy override before
// entering the retry loop, installs a panic guard, and emits every
// lifecycle event spec.md §4.8 names.
func (r *Registry) spawnGit(
	kind string,
	cfg config.Config,
	overrideJSON json.RawMessage,
	host string,
	filterRequested bool,
	work func(taskID string, attempt int, eff strategy.Effective, token *CancellationToken, progress ProgressFunc) error,
) (string, <-chan struct{}) {
	id, token := r.Create(kind)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if rec := recover(); rec != nil {
				r.setTerminal(id, Failed, string(gerrors.CategoryInternal), "panic",
					fmt.Sprintf("worker panicked: %v", rec))
			}
		}()

		r.setRunning(id, kind)
		progress := func(message string, increment *float64) {
			r.publish(events.TaskProgress(id, message, increment))
		}

		override, ignored, err := strategy.Parse(overrideJSON)
		if err != nil {
			cat, code, msg := classifyErr(err)
			r.setTerminal(id, Failed, cat, code, msg)
			return
		}
		eff := strategy.Apply(r.bus, id, kind, cfg, override, ignored, filterRequested)
		r.emitAdaptiveRolloutOnce(id, cfg, host)

		err = runWithRetry(token, progress, eff.Retry, func(attempt int) error {
			return work(id, attempt, eff, token, progress)
		})
		r.finish(id, token, err)
	}()

	return id, done
}

func (r *Registry) finish(id string, token *CancellationToken, err error) {
	if err == nil {
		r.setTerminal(id, Completed, "", "", "")
		return
	}
	if token.Canceled() {
		r.setTerminal(id, Canceled, "", "", "")
		return
	}
	cat, code, msg := classifyErr(err)
	r.setTerminal(id, Failed, cat, code, msg)
}

func classifyErr(err error) (category, code, message string) {
	return string(gerrors.CategoryOf(err)), gerrors.CodeOf(err), err.Error()
}

// emitAdaptiveRolloutOnce emits Strategy::AdaptiveTlsRollout exactly once per
// task, but only when the transport's per-host rewrite decision would
// actually pick fake SNI for this task's target host (spec.md §4.5, §4.8):
// host must be policy-eligible (enabled, no proxy, whitelisted, and sampled
// into the rollout by host). Tasks with no resolvable host (a push, or a
// fetch against the default remote) never emit — there is nothing to decide
// a rewrite for. The event's own sampled field is a separate figure,
// computed by hashing the task id rather than the host, so two tasks
// targeting the same host can still be reported as sampled differently.
func (r *Registry) emitAdaptiveRolloutOnce(id string, cfg config.Config, host string) {
	if host == "" || !transport.FakeSniEligible(cfg, host) {
		return
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	sampled := int(h.Sum32()%100) < cfg.Http.FakeSniRolloutPercent
	r.publish(events.New(events.FamilyStrategy, events.VariantAdaptiveTlsRollout, events.Fields{
		"id": id, "percentApplied": cfg.Http.FakeSniRolloutPercent, "sampled": sampled,
	}))
}

// hostOf extracts the hostname from a repository URL for fake-SNI
// eligibility checks. Non-URL remotes (SSH shorthand, local paths) and
// parse failures yield "" — treated as "no host to evaluate" by the caller.
func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// SpawnClone dispatches a clone task.
func (r *Registry) SpawnClone(cfg config.Config, git GitOperations, plan ClonePlan, overrideJSON json.RawMessage) (string, <-chan struct{}) {
	return r.spawnGit("clone", cfg, overrideJSON, hostOf(plan.URL), plan.Filter != "", func(taskID string, attempt int, eff strategy.Effective, token *CancellationToken, progress ProgressFunc) error {
		return git.Clone(context.Background(), taskID, r.bus, plan, eff, token, progress)
	})
}

// SpawnFetch dispatches a fetch task.
func (r *Registry) SpawnFetch(cfg config.Config, git GitOperations, plan FetchPlan, overrideJSON json.RawMessage) (string, <-chan struct{}) {
	return r.spawnGit("fetch", cfg, overrideJSON, hostOf(plan.RepoOrURL), plan.Filter != "", func(taskID string, attempt int, eff strategy.Effective, token *CancellationToken, progress ProgressFunc) error {
		return git.Fetch(context.Background(), taskID, r.bus, plan, eff, token, progress)
	})
}

// SpawnPush dispatches a push task. Push targets a configured remote name,
// not a URL, so there's no host to evaluate for fake-SNI eligibility.
func (r *Registry) SpawnPush(cfg config.Config, git GitOperations, plan PushPlan, overrideJSON json.RawMessage) (string, <-chan struct{}) {
	return r.spawnGit("push", cfg, overrideJSON, "", false, func(taskID string, attempt int, eff strategy.Effective, token *CancellationToken, progress ProgressFunc) error {
		return git.Push(context.Background(), taskID, r.bus, plan, eff, token, progress)
	})
}
