package tlsverify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchDomainWildcard(t *testing.T) {
	assert.True(t, MatchDomain("*.github.com", "api.github.com"))
	assert.False(t, MatchDomain("*.github.com", "github.com"))
	assert.False(t, MatchDomain("*.github.com", "a.b.github.com"))
	assert.True(t, MatchDomain("*.GitHub.com", "API.github.COM"))
}

func TestMatchDomainExact(t *testing.T) {
	assert.True(t, MatchDomain("github.com", "github.com"))
	assert.False(t, MatchDomain("github.com", "api.github.com"))
}

func TestSanWhitelistEmptyRejectsEverything(t *testing.T) {
	var w SanWhitelist
	assert.False(t, w.Matches("github.com"))
}

func TestSanWhitelistMatches(t *testing.T) {
	w := SanWhitelist{"*.github.com", "baidu.com"}
	assert.True(t, w.Matches("api.github.com"))
	assert.True(t, w.Matches("baidu.com"))
	assert.False(t, w.Matches("evil.com"))
}
