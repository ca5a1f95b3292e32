package gitops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"

	gerrors "github.com/fireworks/gitengine/internal/errors"
	"github.com/fireworks/gitengine/internal/events"
	"github.com/fireworks/gitengine/internal/logfields"
	"github.com/fireworks/gitengine/internal/strategy"
	"github.com/fireworks/gitengine/internal/tasks"
)

// Client is the native-Git-library wrapper the task registry drives. It
// carries no retry logic of its own — internal/tasks.runWithRetry already
// wraps every call — and holds no mutable state beyond what go-git itself
// needs per call.
type Client struct{}

// NewClient constructs a Client. There is nothing to configure: workspace
// layout is the caller's concern (each plan carries an absolute Dest).
func NewClient() *Client { return &Client{} }

var _ tasks.GitOperations = (*Client)(nil)

// Clone implements tasks.GitOperations. It fails fast on an unsupported URL
// scheme or malformed filter/depth before touching the network, then drives
// go-git's PlainCloneContext so cancellation is honored between read/write
// chunks (go-git's http transport derives its requests from ctx).
func (c *Client) Clone(ctx context.Context, taskID string, bus *events.Bus, plan tasks.ClonePlan, eff strategy.Effective, token *tasks.CancellationToken, progress tasks.ProgressFunc) error {
	if err := validateCloneURL(plan.URL); err != nil {
		return err
	}
	if err := validateDepth(plan.Depth); err != nil {
		return err
	}
	if err := validateFilterSyntax(plan.Filter); err != nil {
		return err
	}
	if token.Canceled() {
		return gerrors.CancelError("task canceled").Build()
	}

	applyPartialFilterFallback(bus, taskID, plan.Filter, plan.Depth > 0)

	pw := newPhaseWriter(progress)
	pw.advance(phaseNegotiating, "starting clone")

	opts := &git.CloneOptions{
		URL:      plan.URL,
		Progress: pw,
	}
	if plan.Depth > 0 {
		opts.Depth = plan.Depth
	}

	ctx, cancel := contextWithToken(ctx, token)
	defer cancel()

	if err := os.RemoveAll(plan.Dest); err != nil {
		return classify(fmt.Errorf("remove existing destination: %w", err), "clone")
	}

	slog.Debug("cloning repository", logfields.TaskID(taskID), logfields.URL(plan.URL), logfields.Path(plan.Dest))

	repo, err := git.PlainCloneContext(ctx, plan.Dest, false, opts)
	if err != nil {
		if token.Canceled() {
			return gerrors.CancelError("task canceled").Build()
		}
		return classify(err, "clone")
	}

	pw.advance(phaseCheckout, "checkout complete")

	if head, herr := repo.Head(); herr == nil {
		slog.Info("repository cloned", logfields.TaskID(taskID), logfields.URL(plan.URL), slog.String("commit", head.Hash().String()[:8]))
	} else {
		slog.Info("repository cloned", logfields.TaskID(taskID), logfields.URL(plan.URL))
	}

	pw.advance(phaseCompleted, "clone complete")
	return nil
}

// Fetch implements tasks.GitOperations. dest must already be a repository;
// an empty RepoOrURL means "use the default remote" (origin).
func (c *Client) Fetch(ctx context.Context, taskID string, bus *events.Bus, plan tasks.FetchPlan, eff strategy.Effective, token *tasks.CancellationToken, progress tasks.ProgressFunc) error {
	if err := validateDepth(plan.Depth); err != nil {
		return err
	}
	if err := validateFilterSyntax(plan.Filter); err != nil {
		return err
	}
	if token.Canceled() {
		return gerrors.CancelError("task canceled").Build()
	}

	repo, err := git.PlainOpen(plan.Dest)
	if err != nil {
		return classify(fmt.Errorf("open destination: %w", err), "fetch")
	}

	// A non-empty RepoOrURL that names a configured remote fetches from that
	// remote; otherwise it's treated as a literal URL and fetched from
	// "origin" as configured (go-git fetches by remote name, not ad hoc
	// URLs, so a literal URL here only affects the local-path depth check).
	remoteName := "origin"
	isLocalPathRemote := false
	if plan.RepoOrURL != "" {
		if _, cfgErr := repo.Remote(plan.RepoOrURL); cfgErr == nil {
			remoteName = plan.RepoOrURL
		}
		isLocalPathRemote = looksLikeLocalPath(plan.RepoOrURL)
	}

	applyPartialFilterFallback(bus, taskID, plan.Filter, plan.Depth > 0)

	pw := newPhaseWriter(progress)
	pw.advance(phaseNegotiating, "starting fetch")

	fetchOpts := &git.FetchOptions{
		RemoteName: remoteName,
		RefSpecs:   []ggitcfg.RefSpec{"+refs/heads/*:refs/remotes/" + ggitcfg.RefSpec(remoteName) + "/*"},
		Progress:   pw,
	}
	// Depth is documented as ignored for local-path remotes (spec.md §4.9),
	// never an error.
	if plan.Depth > 0 && !isLocalPathRemote {
		fetchOpts.Depth = plan.Depth
	}

	ctx, cancel := contextWithToken(ctx, token)
	defer cancel()

	slog.Debug("fetching repository", logfields.TaskID(taskID), logfields.Path(plan.Dest), slog.String("remote", remoteName))

	if err := repo.FetchContext(ctx, fetchOpts); err != nil {
		if token.Canceled() {
			return gerrors.CancelError("task canceled").Build()
		}
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			pw.advance(phaseCompleted, "already up to date")
			return nil
		}
		return classify(err, "fetch")
	}

	pw.advance(phaseCompleted, "fetch complete")
	slog.Info("repository fetched", logfields.TaskID(taskID), logfields.Path(plan.Dest))
	return nil
}

// Push implements tasks.GitOperations. Credentials, when present, are
// injected as the request's Authorization header by go-git's own
// http.BasicAuth — functionally the thread-local header spec.md §4.9
// describes, scoped here to a single PushContext call instead of a
// process-wide thread-local.
func (c *Client) Push(ctx context.Context, taskID string, bus *events.Bus, plan tasks.PushPlan, eff strategy.Effective, token *tasks.CancellationToken, progress tasks.ProgressFunc) error {
	if token.Canceled() {
		return gerrors.CancelError("task canceled").Build()
	}

	repo, err := git.PlainOpen(plan.Dest)
	if err != nil {
		return classify(fmt.Errorf("open destination: %w", err), "push")
	}

	remote := plan.Remote
	if remote == "" {
		remote = "origin"
	}
	refspecs := plan.Refspecs
	if len(refspecs) == 0 {
		head, herr := repo.Head()
		if herr != nil {
			return classify(fmt.Errorf("resolve current branch: %w", herr), "push")
		}
		branch := head.Name().Short()
		refspecs = []string{fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)}
	}
	specs := make([]ggitcfg.RefSpec, len(refspecs))
	for i, rs := range refspecs {
		specs[i] = ggitcfg.RefSpec(rs)
	}

	pw := newPhaseWriter(progress)
	pw.advance(phaseNegotiating, "starting push")

	pushOpts := &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   specs,
		Auth:       authFor(plan.Creds),
		Progress:   pw,
	}

	ctx, cancel := contextWithToken(ctx, token)
	defer cancel()

	slog.Debug("pushing repository", logfields.TaskID(taskID), logfields.Path(plan.Dest), slog.String("remote", remote))

	if err := repo.PushContext(ctx, pushOpts); err != nil {
		if token.Canceled() {
			return gerrors.CancelError("task canceled").Build()
		}
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			pw.advance(phaseCompleted, "already up to date")
			return nil
		}
		return classify(err, "push")
	}

	pw.advance(phaseCompleted, "push complete")
	slog.Info("repository pushed", logfields.TaskID(taskID), slog.String("remote", remote))
	return nil
}

var supportedSchemes = map[string]bool{
	"https": true, "http": true, "ssh": true, "git": true, "file": true,
}

// validateCloneURL fails fast (category Internal, per spec.md §4.9) on an
// unsupported scheme or a local path that plainly doesn't exist yet.
func validateCloneURL(raw string) error {
	if looksLikeLocalPath(raw) {
		if _, err := os.Stat(raw); err != nil {
			return internalURLError("local clone source does not exist: " + raw)
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return internalURLError("unparseable clone URL: " + raw)
	}
	if !supportedSchemes[strings.ToLower(u.Scheme)] {
		return internalURLError("unsupported URL scheme: " + u.Scheme)
	}
	return nil
}

func looksLikeLocalPath(s string) bool {
	if s == "" {
		return false
	}
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") ||
		(len(s) > 1 && s[1] == ':') // windows drive letter
}

// internalURLError builds the Internal-category error spec.md §4.9 requires
// for an unsupported URL scheme or a nonexistent local clone source.
func internalURLError(message string) error {
	return gerrors.InternalError(message).WithCode("invalid_clone_source").Build()
}

// contextWithToken derives a context that is canceled the moment the task's
// cancellation token fires, letting go-git's context-aware calls abort
// in-flight network operations at their next polling point.
func contextWithToken(parent context.Context, token *tasks.CancellationToken) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-token.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
