package retry

import (
	"testing"

	gerrors "github.com/fireworks/gitengine/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelayMSNoJitterExact(t *testing.T) {
	plan := Plan{Max: 6, BaseMS: 300, Factor: 1.5, Jitter: false}
	for attempt := 0; attempt < 5; attempt++ {
		got := BackoffDelayMS(plan, attempt)
		want := 300.0
		for i := 0; i < attempt; i++ {
			want *= 1.5
		}
		assert.InDelta(t, want, got, 1e-9)
	}
}

func TestBackoffDelayMSJitterBounds(t *testing.T) {
	plan := Plan{Max: 6, BaseMS: 300, Factor: 1.5, Jitter: true}
	noJitter := Plan{Max: 6, BaseMS: 300, Factor: 1.5, Jitter: false}
	for attempt := 0; attempt < 5; attempt++ {
		base := BackoffDelayMS(noJitter, attempt)
		for i := 0; i < 20; i++ {
			got := BackoffDelayMS(plan, attempt)
			assert.GreaterOrEqual(t, got, base*0.5)
			assert.LessOrEqual(t, got, base*1.5)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(gerrors.NetworkError("connection reset").Build()))
	require.True(t, IsRetryable(gerrors.TlsError("handshake failed").Build()))
	require.True(t, IsRetryable(gerrors.VerifyError("cert mismatch").Build()))
	require.False(t, IsRetryable(gerrors.AuthError("unauthorized").Build()))
	require.False(t, IsRetryable(gerrors.CancelError("canceled").Build()))
	require.False(t, IsRetryable(gerrors.InternalError("boom").Build()))
}

func TestIsRetryableProtocol5xxOnly(t *testing.T) {
	retryable := gerrors.ProtocolError("upstream returned 503 Service Unavailable").Build()
	require.True(t, IsRetryable(retryable))

	notRetryable := gerrors.ProtocolError("malformed pkt-line").Build()
	require.False(t, IsRetryable(notRetryable))
}

func TestComputeRetryDiffIdentical(t *testing.T) {
	plan := DefaultPlan()
	diff, changed := ComputeRetryDiff(plan, plan)
	assert.False(t, changed)
	assert.Empty(t, diff.Changed)
}

func TestComputeRetryDiffDetectsEachField(t *testing.T) {
	base := Plan{Max: 6, BaseMS: 300, Factor: 1.5, Jitter: true}

	diff, changed := ComputeRetryDiff(base, Plan{Max: 3, BaseMS: 300, Factor: 1.5, Jitter: true})
	require.True(t, changed)
	assert.Equal(t, []string{"max"}, diff.Changed)

	diff, changed = ComputeRetryDiff(base, Plan{Max: 6, BaseMS: 300, Factor: 1.5, Jitter: false})
	require.True(t, changed)
	assert.Equal(t, []string{"jitter"}, diff.Changed)

	diff, changed = ComputeRetryDiff(base, Plan{Max: 3, BaseMS: 150, Factor: 2.0, Jitter: false})
	require.True(t, changed)
	assert.Equal(t, []string{"baseMs", "factor", "jitter", "max"}, diff.Changed)
}
