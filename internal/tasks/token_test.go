package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancellationTokenIdempotent(t *testing.T) {
	token := NewCancellationToken()
	assert.False(t, token.Canceled())
	token.Cancel()
	token.Cancel() // must not panic on double-close
	assert.True(t, token.Canceled())

	select {
	case <-token.Done():
	default:
		t.Fatal("Done channel should be closed after Cancel")
	}
}
