package tasks

import (
	"fmt"
	"time"

	"github.com/fireworks/gitengine/internal/retry"
)

// ProgressFunc reports a human-readable progress message and/or a
// completion-fraction increment for Task::Progress events.
type ProgressFunc func(message string, increment *float64)

// runWithRetry drives spec.md §4.8's retry loop: attempts 0..plan.Max,
// checking the cancellation token before and after each attempt,
// classifying failures via internal/retry.IsRetryable, and sleeping an
// interruptible backoff between attempts.
func runWithRetry(token *CancellationToken, progress ProgressFunc, plan retry.Plan, op func(attempt int) error) error {
	maxAttempts := int(plan.Max)
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if token.Canceled() {
			return errCanceled
		}

		err := op(attempt)
		if err == nil {
			return nil
		}
		if token.Canceled() {
			return errCanceled
		}

		isFinalAttempt := attempt == maxAttempts-1
		if !retry.IsRetryable(err) || isFinalAttempt {
			return err
		}

		if progress != nil {
			progress(fmt.Sprintf("Retrying (attempt %d of %d)", attempt+1, maxAttempts-1), nil)
		}

		delayMS := retry.BackoffDelayMS(plan, attempt)
		select {
		case <-time.After(time.Duration(delayMS) * time.Millisecond):
		case <-token.Done():
			return errCanceled
		}
	}
	return nil
}

type canceledError struct{}

func (canceledError) Error() string { return "task canceled" }

var errCanceled error = canceledError{}
