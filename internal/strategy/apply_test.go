package strategy

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fireworks/gitengine/internal/config"
	"github.com/fireworks/gitengine/internal/events"
)

func TestParseUnknownFieldsAreIgnoredNotRejected(t *testing.T) {
	override, ignored, err := Parse(json.RawMessage(`{"http":{"followRedirects":false,"bogus":1},"wat":true}`))
	require.NoError(t, err)
	require.NotNil(t, override.Http)
	assert.Equal(t, []string{"wat"}, ignored.TopLevel)
	assert.Equal(t, []string{"bogus"}, ignored.Nested["http"])
}

func TestParseRejectsOutOfRangeRetry(t *testing.T) {
	_, _, err := Parse(json.RawMessage(`{"retry":{"max":99}}`))
	assert.Error(t, err)
}

func TestNormalizeHttpFollowRedirectsForcesZeroMaxRedirects(t *testing.T) {
	followFalse := false
	maxRedirects := uint8(5)
	o := &Override{Http: &HttpOverride{FollowRedirects: &followFalse, MaxRedirects: &maxRedirects}}
	conflicts := Normalize(o)
	require.Len(t, conflicts, 1)
	assert.Equal(t, uint8(0), *o.Http.MaxRedirects)
}

func TestNormalizeTlsInsecureSkipVerifyForcesSanWhitelistOn(t *testing.T) {
	yes := true
	o := &Override{Tls: &TlsOverride{InsecureSkipVerify: &yes, SkipSanWhitelist: &yes}}
	conflicts := Normalize(o)
	require.Len(t, conflicts, 1)
	assert.False(t, *o.Tls.SkipSanWhitelist)
}

func TestApplyGatesHttpAndTlsAppliedEventsBehindEnv(t *testing.T) {
	cfg := config.Default()
	followFalse := false
	insecure := true
	override := &Override{
		Http: &HttpOverride{FollowRedirects: &followFalse},
		Tls:  &TlsOverride{InsecureSkipVerify: &insecure},
	}

	os.Unsetenv("FWC_STRATEGY_APPLIED_EVENTS")
	bus := events.NewBus()
	eff := Apply(bus, "task-1", "clone", cfg, override, IgnoredFields{}, false)
	assert.False(t, eff.Http.FollowRedirects)
	assert.True(t, eff.Tls.InsecureSkipVerify)
	for _, e := range bus.Snapshot() {
		assert.NotEqual(t, events.VariantHttpApplied, e.Variant)
		assert.NotEqual(t, events.VariantTlsApplied, e.Variant)
	}

	require.NoError(t, os.Setenv("FWC_STRATEGY_APPLIED_EVENTS", "1"))
	defer os.Unsetenv("FWC_STRATEGY_APPLIED_EVENTS")
	bus2 := events.NewBus()
	Apply(bus2, "task-1b", "clone", cfg, override, IgnoredFields{}, false)
	snap := bus2.Snapshot()
	var sawHttp, sawTls bool
	for _, e := range snap {
		if e.Variant == events.VariantHttpApplied {
			sawHttp = true
		}
		if e.Variant == events.VariantTlsApplied {
			sawTls = true
		}
	}
	assert.True(t, sawHttp)
	assert.True(t, sawTls)
}

func TestApplyAlwaysEmitsSummaryRegardlessOfGating(t *testing.T) {
	cfg := config.Default()
	followFalse := false
	override := &Override{Http: &HttpOverride{FollowRedirects: &followFalse}}

	os.Unsetenv("FWC_STRATEGY_APPLIED_EVENTS")
	bus := events.NewBus()
	Apply(bus, "task-2", "clone", cfg, override, IgnoredFields{}, true)
	var summary events.Event
	var sawSummary bool
	for _, e := range bus.Snapshot() {
		if e.Variant == events.VariantSummary {
			sawSummary = true
			summary = e
		}
	}
	require.True(t, sawSummary, "Summary must be emitted even when FWC_STRATEGY_APPLIED_EVENTS is unset")
	assert.Equal(t, []string{"http.followRedirects"}, summary.Data["applied_codes"])
	assert.Equal(t, "clone", summary.Data["kind"])
	assert.Equal(t, false, summary.Data["http_follow"])
	assert.Equal(t, true, summary.Data["filter_requested"])

	require.NoError(t, os.Setenv("FWC_STRATEGY_APPLIED_EVENTS", "1"))
	defer os.Unsetenv("FWC_STRATEGY_APPLIED_EVENTS")
	bus2 := events.NewBus()
	Apply(bus2, "task-3", "fetch", cfg, override, IgnoredFields{}, false)
	sawSummary = false
	for _, e := range bus2.Snapshot() {
		if e.Variant == events.VariantSummary {
			sawSummary = true
		}
	}
	assert.True(t, sawSummary)
}

func TestApplyPublishesConflictEvent(t *testing.T) {
	bus := events.NewBus()
	cfg := config.Default()
	followFalse := false
	maxRedirects := uint8(5)
	override := &Override{Http: &HttpOverride{FollowRedirects: &followFalse, MaxRedirects: &maxRedirects}}
	Apply(bus, "task-4", "clone", cfg, override, IgnoredFields{}, false)
	var sawConflict bool
	for _, e := range bus.Snapshot() {
		if e.Variant == events.VariantConflict {
			sawConflict = true
		}
	}
	assert.True(t, sawConflict)
}
