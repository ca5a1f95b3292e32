package ippool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCidrFilterBlacklistWins(t *testing.T) {
	f := newCidrFilter([]string{"10.0.0.0/8"}, nil)
	allowed, listType, cidr := f.allow("10.1.2.3")
	assert.False(t, allowed)
	assert.Equal(t, ListBlacklist, listType)
	assert.Equal(t, "10.0.0.0/8", cidr)
}

func TestCidrFilterEmptyWhitelistAllowsAll(t *testing.T) {
	f := newCidrFilter(nil, nil)
	allowed, _, _ := f.allow("8.8.8.8")
	assert.True(t, allowed)
}

func TestCidrFilterWhitelistRejectsOutsideRange(t *testing.T) {
	f := newCidrFilter(nil, []string{"192.168.0.0/16"})
	allowed, listType, _ := f.allow("8.8.8.8")
	assert.False(t, allowed)
	assert.Equal(t, ListWhitelist, listType)

	allowed, _, _ = f.allow("192.168.1.1")
	assert.True(t, allowed)
}
