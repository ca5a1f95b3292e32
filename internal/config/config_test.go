package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Http.FollowRedirects)
	assert.Equal(t, uint8(5), cfg.Http.MaxRedirects)
	assert.True(t, cfg.Http.FakeSniEnabled)
	assert.Contains(t, cfg.Http.FakeSniHosts, "github.com")
	assert.Equal(t, RetryConfig{Max: 6, BaseMs: 300, Factor: 1.5, Jitter: true}, cfg.Retry)
}

func TestInitRefusesOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, Init(path, false))
	err := Init(path, false)
	assert.Error(t, err)
	require.NoError(t, Init(path, true))
}

func TestLoadExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	os.Setenv("GITENGINE_TEST_PROXY_URL", "http://proxy.example:8080")
	defer os.Unsetenv("GITENGINE_TEST_PROXY_URL")

	content := "proxy:\n  mode: http\n  url: ${GITENGINE_TEST_PROXY_URL}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://proxy.example:8080", cfg.Proxy.URL)
	assert.True(t, cfg.Proxy.Active())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteAtomicReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	require.NoError(t, WriteAtomic(path, []byte("first")))
	require.NoError(t, WriteAtomic(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}
