package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInWhitelistIsCaseInsensitiveExactMatch(t *testing.T) {
	hosts := []string{"Baidu.com", "github.com"}
	assert.True(t, inWhitelist("baidu.com", hosts))
	assert.True(t, inWhitelist("GITHUB.COM", hosts))
	assert.False(t, inWhitelist("api.github.com", hosts))
}

func TestRolloutSampleBoundaries(t *testing.T) {
	assert.True(t, rolloutSample("anything", 100))
	assert.False(t, rolloutSample("anything", 0))
}

func TestRolloutSampleIsStablePerHost(t *testing.T) {
	first := rolloutSample("api.github.com", 50)
	second := rolloutSample("api.github.com", 50)
	assert.Equal(t, first, second)
}

func TestPickFakeSNIExcludesRealHost(t *testing.T) {
	pool := []string{"github.com", "baidu.com"}
	sni := pickFakeSNI("github.com", pool)
	assert.Equal(t, "baidu.com", sni)
}

func TestPickFakeSNIFallsBackToHostWhenNoOtherCandidate(t *testing.T) {
	sni := pickFakeSNI("github.com", []string{"github.com"})
	assert.Equal(t, "github.com", sni)
}

func TestStickySNIRoundTrip(t *testing.T) {
	s := newStickySNI()
	assert.Equal(t, "", s.get("github.com"))
	s.set("github.com", "baidu.com")
	assert.Equal(t, "baidu.com", s.get("github.com"))
}
