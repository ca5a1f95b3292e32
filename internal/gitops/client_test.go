package gitops

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/fireworks/gitengine/internal/errors"
	"github.com/fireworks/gitengine/internal/events"
	"github.com/fireworks/gitengine/internal/strategy"
	"github.com/fireworks/gitengine/internal/tasks"
)

// initTestRepo creates a local repository with one commit, the same way
// the teacher's integration helpers bootstrap a fixture repo.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644))

	w, err := repo.Worktree()
	require.NoError(t, err)
	_, err = w.Add("README.md")
	require.NoError(t, err)

	_, err = w.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir
}

func noopProgress(string, *float64) {}

func TestClientCloneLocalRepoSucceeds(t *testing.T) {
	src := initTestRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")

	c := NewClient()
	err := c.Clone(context.Background(), "task-1", events.NewBus(), tasks.ClonePlan{URL: src, Dest: dest}, strategy.Effective{}, tasks.NewCancellationToken(), noopProgress)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dest, "README.md"))
	assert.NoError(t, err)
}

func TestClientCloneUnsupportedSchemeFailsFast(t *testing.T) {
	c := NewClient()
	err := c.Clone(context.Background(), "task-1", events.NewBus(), tasks.ClonePlan{URL: "ftp://example.com/repo", Dest: t.TempDir()}, strategy.Effective{}, tasks.NewCancellationToken(), noopProgress)
	require.Error(t, err)
	assert.Equal(t, gerrors.CategoryInternal, gerrors.CategoryOf(err))
}

func TestClientCloneNonexistentLocalSourceFailsFast(t *testing.T) {
	c := NewClient()
	err := c.Clone(context.Background(), "task-1", events.NewBus(), tasks.ClonePlan{URL: filepath.Join(t.TempDir(), "missing"), Dest: t.TempDir()}, strategy.Effective{}, tasks.NewCancellationToken(), noopProgress)
	require.Error(t, err)
	assert.Equal(t, gerrors.CategoryInternal, gerrors.CategoryOf(err))
}

func TestClientCloneInvalidDepthFailsFast(t *testing.T) {
	src := initTestRepo(t)
	c := NewClient()
	err := c.Clone(context.Background(), "task-1", events.NewBus(), tasks.ClonePlan{URL: src, Dest: t.TempDir(), Depth: -1}, strategy.Effective{}, tasks.NewCancellationToken(), noopProgress)
	require.Error(t, err)
	assert.Equal(t, gerrors.CategoryProtocol, gerrors.CategoryOf(err))
}

func TestClientCloneUnsupportedFilterFallsBackAndEmitsEvents(t *testing.T) {
	src := initTestRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")
	bus := events.NewBus()

	c := NewClient()
	err := c.Clone(context.Background(), "task-1", bus, tasks.ClonePlan{URL: src, Dest: dest, Filter: "blob:none"}, strategy.Effective{}, tasks.NewCancellationToken(), noopProgress)
	require.NoError(t, err)

	snap := bus.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, events.VariantPartialFilterUnsupported, snap[0].Variant)
	assert.Equal(t, events.VariantPartialFilterFallback, snap[1].Variant)
}

func TestClientCloneMalformedFilterIsHardError(t *testing.T) {
	src := initTestRepo(t)
	c := NewClient()
	err := c.Clone(context.Background(), "task-1", events.NewBus(), tasks.ClonePlan{URL: src, Dest: t.TempDir(), Filter: "nonsense"}, strategy.Effective{}, tasks.NewCancellationToken(), noopProgress)
	require.Error(t, err)
	assert.Equal(t, gerrors.CategoryProtocol, gerrors.CategoryOf(err))
}

func TestClientCloneRespectsCancellation(t *testing.T) {
	src := initTestRepo(t)
	token := tasks.NewCancellationToken()
	token.Cancel()

	c := NewClient()
	err := c.Clone(context.Background(), "task-1", events.NewBus(), tasks.ClonePlan{URL: src, Dest: t.TempDir()}, strategy.Effective{}, token, noopProgress)
	require.Error(t, err)
	assert.Equal(t, gerrors.CategoryCancel, gerrors.CategoryOf(err))
}

func TestClientFetchUpdatesFromOrigin(t *testing.T) {
	src := initTestRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")

	c := NewClient()
	require.NoError(t, c.Clone(context.Background(), "task-1", events.NewBus(), tasks.ClonePlan{URL: src, Dest: dest}, strategy.Effective{}, tasks.NewCancellationToken(), noopProgress))

	// Add a second commit to the source repo.
	repo, err := git.PlainOpen(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(src, "second.txt"), []byte("more\n"), 0o644))
	w, err := repo.Worktree()
	require.NoError(t, err)
	_, err = w.Add("second.txt")
	require.NoError(t, err)
	_, err = w.Commit("second commit", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	err = c.Fetch(context.Background(), "task-2", events.NewBus(), tasks.FetchPlan{Dest: dest}, strategy.Effective{}, tasks.NewCancellationToken(), noopProgress)
	assert.NoError(t, err)
}

func TestClientFetchNonRepoDestFails(t *testing.T) {
	c := NewClient()
	err := c.Fetch(context.Background(), "task-1", events.NewBus(), tasks.FetchPlan{Dest: t.TempDir()}, strategy.Effective{}, tasks.NewCancellationToken(), noopProgress)
	require.Error(t, err)
}

func TestValidateCloneURLAcceptsSupportedSchemes(t *testing.T) {
	for _, u := range []string{"https://example.com/repo.git", "http://example.com/repo.git", "ssh://git@example.com/repo.git", "git://example.com/repo.git"} {
		assert.NoErrorf(t, validateCloneURL(u), "url %q should be accepted", u)
	}
}

func TestValidateCloneURLRejectsUnsupportedScheme(t *testing.T) {
	assert.Error(t, validateCloneURL("ftp://example.com/repo.git"))
}

func TestLooksLikeLocalPathRecognizesRelativeAndAbsolutePaths(t *testing.T) {
	assert.True(t, looksLikeLocalPath("/tmp/repo"))
	assert.True(t, looksLikeLocalPath("./repo"))
	assert.True(t, looksLikeLocalPath("../repo"))
	assert.False(t, looksLikeLocalPath("https://example.com/repo.git"))
	assert.False(t, looksLikeLocalPath(""))
}
