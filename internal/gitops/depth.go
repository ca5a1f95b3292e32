package gitops

import (
	"math"

	gerrors "github.com/fireworks/gitengine/internal/errors"
)

// validateDepth enforces spec.md §4.9's shallow/deepen rule: depth=0 means
// "no depth requested" (a full clone/fetch) and always passes; an
// explicitly negative depth, or one beyond int32's range, is a Protocol
// error.
func validateDepth(depth int) error {
	if depth == 0 {
		return nil
	}
	if depth < 0 {
		return gerrors.ProtocolError("depth must be a positive integer").WithCode("invalid_depth").Build()
	}
	if depth > math.MaxInt32 {
		return gerrors.ProtocolError("depth exceeds the maximum supported value").WithCode("invalid_depth").Build()
	}
	return nil
}
