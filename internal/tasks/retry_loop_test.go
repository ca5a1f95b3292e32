package tasks

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/fireworks/gitengine/internal/errors"
	"github.com/fireworks/gitengine/internal/retry"
)

func retryablePlan() retry.Plan {
	return retry.Plan{Max: 3, BaseMS: 1, Factor: 1.0, Jitter: false}
}

func TestRunWithRetrySucceedsOnFirstAttempt(t *testing.T) {
	token := NewCancellationToken()
	calls := 0
	err := runWithRetry(token, nil, retryablePlan(), func(attempt int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunWithRetryRetriesRetryableErrors(t *testing.T) {
	token := NewCancellationToken()
	calls := 0
	retryable := gerrors.NetworkError("connection reset").WithCode("conn-reset").Build()
	err := runWithRetry(token, nil, retryablePlan(), func(attempt int) error {
		calls++
		if calls < 3 {
			return retryable
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRunWithRetryStopsOnNonRetryableError(t *testing.T) {
	token := NewCancellationToken()
	calls := 0
	fatal := gerrors.AuthError("authentication rejected").WithCode("bad-creds").Build()
	err := runWithRetry(token, nil, retryablePlan(), func(attempt int) error {
		calls++
		return fatal
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunWithRetryStopsAfterFinalAttempt(t *testing.T) {
	token := NewCancellationToken()
	calls := 0
	retryable := gerrors.NetworkError("connection reset").Build()
	plan := retry.Plan{Max: 2, BaseMS: 1, Factor: 1.0, Jitter: false}
	err := runWithRetry(token, nil, plan, func(attempt int) error {
		calls++
		return retryable
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls) // Max=2 total attempts, no further retry after the 2nd
}

func TestRunWithRetryHonorsCancellationBeforeAttempt(t *testing.T) {
	token := NewCancellationToken()
	token.Cancel()
	calls := 0
	err := runWithRetry(token, nil, retryablePlan(), func(attempt int) error {
		calls++
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, err, errCanceled)
}

func TestRunWithRetryHonorsCancellationDuringBackoff(t *testing.T) {
	token := NewCancellationToken()
	retryable := gerrors.NetworkError("connection reset").Build()
	plan := retry.Plan{Max: 5, BaseMS: 60_000, Factor: 1.0, Jitter: false}
	calls := 0
	err := runWithRetry(token, nil, plan, func(attempt int) error {
		calls++
		if calls == 1 {
			go func() {
				time.Sleep(20 * time.Millisecond)
				token.Cancel()
			}()
		}
		return retryable
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errCanceled)
	assert.Equal(t, 1, calls)
}

func TestRunWithRetryReportsProgressMessage(t *testing.T) {
	token := NewCancellationToken()
	retryable := gerrors.NetworkError("connection reset").Build()
	var messages []string
	calls := 0
	_ = runWithRetry(token, func(message string, increment *float64) {
		messages = append(messages, message)
	}, retryablePlan(), func(attempt int) error {
		calls++
		if calls < 2 {
			return retryable
		}
		return nil
	})
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "Retrying")
}

func TestCanceledErrororSentinelIsDistinct(t *testing.T) {
	assert.True(t, errors.Is(errCanceled, errCanceled))
}
