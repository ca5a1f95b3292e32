package transport

import (
	"context"
	"errors"
	"strings"

	gerrors "github.com/fireworks/gitengine/internal/errors"
)

// Classify maps a library-level error into the engine's shared category
// taxonomy (spec.md §4.5), the same eight categories internal/errors
// defines. Errors already built via internal/errors.ErrorBuilder report
// their own category directly; everything else falls back to substring
// heuristics against the error text, the same idiom the teacher's
// classifyCloneError used for go-git errors.
func Classify(err error) gerrors.Category {
	if err == nil {
		return gerrors.CategoryInternal
	}
	if cat, ok := gerrors.AsClassified(err); ok {
		return cat.Category()
	}
	if errors.Is(err, context.Canceled) {
		return gerrors.CategoryCancel
	}

	l := strings.ToLower(err.Error())
	switch {
	case containsAny(l, "context canceled", "operation was canceled", "user canceled"):
		return gerrors.CategoryCancel
	case containsAny(l, "401", "403", "unauthorized", "permission denied", "www-authenticate", "authentication"):
		return gerrors.CategoryAuth
	case containsAny(l, "spki pin", "x509", "certificate", "unknown authority", "certificate_verify_failed"):
		return gerrors.CategoryVerify
	case containsAny(l, "handshake", "tls", "ssl", "record overflow"):
		return gerrors.CategoryTls
	case containsAny(l, "timeout", "i/o timeout", "connection refused", "connection reset", "no such host", "dns", "超时"):
		return gerrors.CategoryNetwork
	case containsAny(l, "500", "502", "503", "504", "505", "internal server error", "bad gateway", "service unavailable", "gateway timeout"):
		return gerrors.CategoryProtocol
	default:
		return gerrors.CategoryInternal
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// IsFallbackCategory reports whether a category during Fake or Real stage
// should advance the stage machine rather than propagate terminally
// (spec.md §4.5).
func IsFallbackCategory(cat gerrors.Category) bool {
	switch cat {
	case gerrors.CategoryTls, gerrors.CategoryVerify, gerrors.CategoryNetwork:
		return true
	default:
		return false
	}
}
