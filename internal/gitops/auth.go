package gitops

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/fireworks/gitengine/internal/tasks"
)

// authFor converts push credentials into a go-git AuthMethod. spec.md §4.9
// frames push auth as a thread-local Authorization header set by the
// transport; go-git's http.BasicAuth plays that role here since it is
// rendered into the same header on every request the transport sends.
func authFor(creds *tasks.Credentials) transport.AuthMethod {
	if creds == nil || creds.Username == "" {
		return nil
	}
	return &http.BasicAuth{Username: creds.Username, Password: creds.Password}
}
