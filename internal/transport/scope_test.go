package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/fireworks/gitengine/internal/errors"
)

func TestScopeRecordsTransitionsAndAttempts(t *testing.T) {
	s := NewScope()
	s.recordTransition(Transition{From: StageFake, To: StageReal, Reason: "network error during Fake stage"})
	s.recordAttempt(StageFake, 10*time.Millisecond, gerrors.CategoryNetwork)
	s.recordAttempt(StageReal, 5*time.Millisecond, "")

	transitions, attempts := s.Snapshot()
	require.Len(t, transitions, 1)
	assert.Equal(t, StageFake, transitions[0].From)
	assert.Equal(t, StageReal, transitions[0].To)
	require.Len(t, attempts, 2)
	assert.Equal(t, gerrors.CategoryNetwork, attempts[0].Category)
}

func TestNilScopeIsANoOp(t *testing.T) {
	var s *Scope
	s.recordTransition(Transition{})
	s.recordAttempt(StageFake, time.Millisecond, "")
	transitions, attempts := s.Snapshot()
	assert.Nil(t, transitions)
	assert.Nil(t, attempts)
}

func TestWithScopeAndScopeFromRoundTrip(t *testing.T) {
	s := NewScope()
	ctx := WithScope(context.Background(), s)
	assert.Same(t, s, ScopeFrom(ctx))
	assert.Nil(t, ScopeFrom(context.Background()))
}

func TestStageStringAndNextStage(t *testing.T) {
	assert.Equal(t, "Fake", StageFake.String())
	assert.Equal(t, "Real", StageReal.String())
	assert.Equal(t, "Default", StageDefault.String())
	assert.Equal(t, StageReal, nextStage(StageFake))
	assert.Equal(t, StageDefault, nextStage(StageReal))
	assert.Equal(t, StageDefault, nextStage(StageDefault))
}
