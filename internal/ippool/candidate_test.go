package ippool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fireworks/gitengine/internal/util/sets"
)

func TestMergeCandidatesUnionsSources(t *testing.T) {
	a := []IpStat{{IP: "1.2.3.4", Sources: sets.New(SourceDns)}}
	b := []IpStat{{IP: "1.2.3.4", Sources: sets.New(SourceHistory)}, {IP: "5.6.7.8", Sources: sets.New(SourceUserStatic)}}

	merged := mergeCandidates(a, b)
	require.Len(t, merged, 2)

	var first *IpStat
	for i := range merged {
		if merged[i].IP == "1.2.3.4" {
			first = &merged[i]
		}
	}
	require.NotNil(t, first)
	assert.True(t, first.Sources.Has(SourceDns))
	assert.True(t, first.Sources.Has(SourceHistory))
}

func TestAggregateWindowTripsAndRecovers(t *testing.T) {
	w := newAggregateWindow(50, 1000)
	var tripped bool
	for i := 0; i < 10; i++ {
		tripped, _ = w.record(false, 0)
	}
	assert.True(t, tripped)
	assert.True(t, w.isDisabled(500))
	assert.False(t, w.isDisabled(1500))
}
