package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fireworks/gitengine/internal/events"
)

func TestCreateSnapshotList(t *testing.T) {
	bus := events.NewBus()
	r := NewRegistry(bus)
	id, token := r.Create("clone")
	require.NotEmpty(t, id)
	require.NotNil(t, token)

	snap, ok := r.Snapshot(id)
	require.True(t, ok)
	assert.Equal(t, Pending, snap.State)
	assert.Equal(t, "clone", snap.Kind)

	list := r.List()
	require.Len(t, list, 1)

	var sawCreated bool
	for _, e := range bus.Snapshot() {
		if e.Variant == events.VariantTaskCreated {
			sawCreated = true
		}
	}
	assert.True(t, sawCreated)
}

func TestSnapshotIsAClone(t *testing.T) {
	r := NewRegistry(nil)
	id, _ := r.Create("fetch")
	snap, _ := r.Snapshot(id)
	snap.State = Completed // mutating the returned copy must not affect the registry

	fresh, _ := r.Snapshot(id)
	assert.Equal(t, Pending, fresh.State)
}

func TestCancelReturnsTrueForKnownTaskAndFalseForUnknownID(t *testing.T) {
	r := NewRegistry(nil)
	id, token := r.Create("push")
	assert.True(t, r.Cancel(id))
	assert.True(t, token.Canceled())
	assert.False(t, r.Cancel("does-not-exist"))
}

func TestSetStateNoEmitBypassesEvents(t *testing.T) {
	bus := events.NewBus()
	r := NewRegistry(bus)
	id, _ := r.Create("clone")
	before := len(bus.Snapshot())
	r.SetStateNoEmit(id, Completed)
	after := bus.Snapshot()
	assert.Len(t, after, before) // no new events published
	snap, _ := r.Snapshot(id)
	assert.Equal(t, Completed, snap.State)
}
