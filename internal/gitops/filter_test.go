package gitops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/fireworks/gitengine/internal/errors"
	"github.com/fireworks/gitengine/internal/events"
)

func TestValidateFilterSyntaxEmptyIsValid(t *testing.T) {
	assert.NoError(t, validateFilterSyntax(""))
}

func TestValidateFilterSyntaxAcceptsKnownForms(t *testing.T) {
	for _, f := range []string{"blob:none", "blob:limit=100k", "blob:limit=5M", "tree:0", "sparse:oid=deadbeef"} {
		assert.NoErrorf(t, validateFilterSyntax(f), "filter %q should be valid", f)
	}
}

func TestValidateFilterSyntaxRejectsMalformed(t *testing.T) {
	err := validateFilterSyntax("blob:maybe")
	require.Error(t, err)
	assert.Equal(t, gerrors.CategoryProtocol, gerrors.CategoryOf(err))
}

func TestApplyPartialFilterFallbackNoopWithoutFilter(t *testing.T) {
	bus := events.NewBus()
	applyPartialFilterFallback(bus, "task-1", "", false)
	assert.Empty(t, bus.Snapshot())
}

func TestApplyPartialFilterFallbackEmitsUnsupportedThenFallback(t *testing.T) {
	bus := events.NewBus()
	applyPartialFilterFallback(bus, "task-1", "blob:none", true)
	snap := bus.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, events.VariantPartialFilterUnsupported, snap[0].Variant)
	assert.Equal(t, events.VariantPartialFilterFallback, snap[1].Variant)
	assert.Equal(t, "task-1", snap[0].Data["id"])
	assert.Equal(t, "blob:none", snap[0].Data["requested"])
	assert.Equal(t, true, snap[1].Data["shallow"])
}

func TestApplyPartialFilterFallbackCapableEscapeHatchSkipsFallback(t *testing.T) {
	t.Setenv("FWC_PARTIAL_FILTER_CAPABLE", "1")
	bus := events.NewBus()
	applyPartialFilterFallback(bus, "task-1", "blob:none", true)
	snap := bus.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, events.VariantPartialFilterCapability, snap[0].Variant)
	assert.Equal(t, true, snap[0].Data["supported"])
}
