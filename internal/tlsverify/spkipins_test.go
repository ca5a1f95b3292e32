package tlsverify

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPin(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func TestSpkiPinSetValidateLength(t *testing.T) {
	set := SpkiPinSet{validPin("one")}
	require.NoError(t, set.Validate())
	assert.Len(t, set[0], 43)
}

func TestSpkiPinSetValidateRejectsTooMany(t *testing.T) {
	var set SpkiPinSet
	for i := 0; i < 11; i++ {
		set = append(set, validPin(string(rune('a'+i))))
	}
	assert.Error(t, set.Validate())
}

func TestSpkiPinSetValidateRejectsBadLength(t *testing.T) {
	set := SpkiPinSet{"too-short"}
	assert.Error(t, set.Validate())
}

func TestSpkiPinSetEmptyAllowsAny(t *testing.T) {
	var set SpkiPinSet
	assert.True(t, set.Contains(validPin("anything")))
}

func TestSpkiPinSetContains(t *testing.T) {
	pin := validPin("pinned")
	set := SpkiPinSet{pin}
	assert.True(t, set.Contains(pin))
	assert.False(t, set.Contains(validPin("other")))
}
