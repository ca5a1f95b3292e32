package retry

import (
	"math"
	"math/rand"
	"strings"

	gerrors "github.com/fireworks/gitengine/internal/errors"
)

// BackoffDelayMS computes the delay in milliseconds before the given attempt.
// attempt is 0-indexed. Jitter, when enabled, scales the base value by a
// uniform random factor in [0.5, 1.5].
func BackoffDelayMS(plan Plan, attempt int) float64 {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(plan.BaseMS) * math.Pow(plan.Factor, float64(attempt))
	if plan.Jitter {
		delay *= 0.5 + rand.Float64()
	}
	return delay
}

// IsRetryable reports whether err should trigger another attempt. Network,
// Tls and Verify categories are retryable outright — verify failures can be
// transient across the adaptive transport's fake/real fallback chain.
// Protocol is retryable only when the message carries a 5xx marker.
// Auth, Cancel and Internal are never retried automatically.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	category := gerrors.CategoryOf(err)
	switch category {
	case gerrors.CategoryNetwork, gerrors.CategoryTls, gerrors.CategoryVerify:
		return true
	case gerrors.CategoryProtocol:
		return has5xxMarker(err.Error())
	default:
		return false
	}
}

func has5xxMarker(message string) bool {
	markers := []string{"500", "501", "502", "503", "504", "505", "internal server error", "bad gateway", "service unavailable", "gateway timeout"}
	lower := strings.ToLower(message)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
