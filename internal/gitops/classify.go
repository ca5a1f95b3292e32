package gitops

import (
	"errors"
	"net"
	"strings"

	"github.com/go-git/go-git/v5"

	gerrors "github.com/fireworks/gitengine/internal/errors"
)

// classify maps a go-git error onto the shared category taxonomy, the same
// one internal/transport.Classify and internal/retry.IsRetryable key off.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if gerrors.IsClassified(err) {
		return err
	}

	msg := strings.ToLower(err.Error())
	var nerr net.Error
	switch {
	case strings.Contains(msg, "authentication") || strings.Contains(msg, "not authorized") ||
		strings.Contains(msg, "could not read username") || strings.Contains(msg, "invalid credentials"):
		return gerrors.AuthError("git " + op + " authentication failed").WithCause(err).Build()
	case strings.Contains(msg, "repository not found"):
		return gerrors.ProtocolError("repository not found").WithCause(err).WithCode("repo_not_found").Build()
	case strings.Contains(msg, "non-fast-forward") || strings.Contains(msg, "diverged"):
		return gerrors.ProtocolError("remote has diverged").WithCause(err).WithCode("diverged").Build()
	case strings.Contains(msg, "unsupported protocol") || strings.Contains(msg, "unknown scheme"):
		return gerrors.InternalError("unsupported Git URL scheme").WithCause(err).Build()
	case errors.As(err, &nerr):
		return gerrors.NetworkError("git "+op+" network error").WithCause(err).Build()
	case strings.Contains(msg, "connection reset") || strings.Contains(msg, "eof") ||
		strings.Contains(msg, "timeout") || strings.Contains(msg, "no route to host"):
		return gerrors.NetworkError("git " + op + " network error").WithCause(err).Build()
	case errors.Is(err, git.ErrRepositoryNotExists):
		return gerrors.ProtocolError("destination is not a Git repository").WithCause(err).WithCode("not_a_repo").Build()
	default:
		return gerrors.InternalError("git " + op + " failed").WithCause(err).Build()
	}
}
