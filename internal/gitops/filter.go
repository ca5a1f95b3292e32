package gitops

import (
	"os"
	"regexp"

	gerrors "github.com/fireworks/gitengine/internal/errors"
	"github.com/fireworks/gitengine/internal/events"
)

// filterSyntax matches the partial-clone filter specs git itself accepts:
// blob:none, blob:limit=<n>[kmg], tree:<depth>, sparse:oid=<oid>.
var filterSyntax = regexp.MustCompile(`^(blob:none|blob:limit=\d+[kKmMgG]?|tree:\d+|sparse:oid=[0-9a-fA-F]+)$`)

// validateFilterSyntax rejects malformed filter specs as a hard Protocol
// error (spec.md §4.9: "invalid filter syntax is a hard Protocol error,
// never a fallback").
func validateFilterSyntax(filter string) error {
	if filter == "" {
		return nil
	}
	if !filterSyntax.MatchString(filter) {
		return gerrors.ProtocolError("malformed partial-clone filter").WithCode("invalid_filter").
			WithContext("filter", filter).Build()
	}
	return nil
}

// applyPartialFilterFallback is called whenever a filter was requested:
// go-git has no server-side partial-clone filter capability, so every
// syntactically valid filter request falls back to an unfiltered
// operation, emitting PartialFilterUnsupported then PartialFilterFallback.
//
// Setting FWC_PARTIAL_FILTER_CAPABLE=1 skips the fallback and instead
// reports the filter as supported, so integration tests can exercise the
// capability-negotiation event shape without needing a go-git release that
// actually implements partial clone.
func applyPartialFilterFallback(bus *events.Bus, taskID, filter string, depthRequested bool) {
	if filter == "" || bus == nil {
		return
	}
	if os.Getenv("FWC_PARTIAL_FILTER_CAPABLE") == "1" {
		bus.Publish(events.PartialFilterCapability(taskID, true))
		return
	}
	bus.Publish(events.PartialFilterUnsupported(taskID, filter))
	bus.Publish(events.PartialFilterFallback(taskID, depthRequested,
		"partial-clone filters are not supported by the underlying Git library; proceeding without filtering"))
}
