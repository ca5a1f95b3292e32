package strategy

import (
	"os"
	"sort"

	"github.com/fireworks/gitengine/internal/config"
	"github.com/fireworks/gitengine/internal/events"
	"github.com/fireworks/gitengine/internal/retry"
)

// EffectiveHttp is the http policy a task actually runs with.
type EffectiveHttp struct {
	FollowRedirects bool
	MaxRedirects    uint8
}

// EffectiveTls is the tls policy a task actually runs with.
type EffectiveTls struct {
	InsecureSkipVerify bool
	SkipSanWhitelist   bool
}

// Effective is the fully resolved, conflict-normalized per-task policy
// produced by applying an Override on top of the global config.
type Effective struct {
	Http  EffectiveHttp
	Tls   EffectiveTls
	Retry retry.Plan
}

// appliedEventsEnabled gates the per-section HttpApplied/TlsApplied/
// RetryApplied events behind the FWC_STRATEGY_APPLIED_EVENTS env var
// (spec.md §4.7). Summary is never gated by this — it is always emitted,
// exactly once per task, with applied_codes carrying the full set either
// way.
func appliedEventsEnabled() bool {
	v := os.Getenv("FWC_STRATEGY_APPLIED_EVENTS")
	return v == "1" || v == "true"
}

// Apply resolves an Override against the global Config for a given task,
// normalizing conflicts and publishing the Strategy events spec.md §4.7
// describes: HttpApplied/TlsApplied/RetryApplied per divergent section
// (gated by FWC_STRATEGY_APPLIED_EVENTS), Conflict per normalization
// decision, IgnoredFields for unrecognized fields, and exactly one
// unconditional Summary carrying the fully resolved policy.
func Apply(bus *events.Bus, taskID, kind string, cfg config.Config, override *Override, ignored IgnoredFields, filterRequested bool) Effective {
	if override == nil {
		override = &Override{}
	}
	conflicts := Normalize(override)

	eff := Effective{
		Http: EffectiveHttp{FollowRedirects: cfg.Http.FollowRedirects, MaxRedirects: cfg.Http.MaxRedirects},
		Tls:  EffectiveTls{InsecureSkipVerify: false, SkipSanWhitelist: false},
		Retry: retry.Plan{Max: cfg.Retry.Max, BaseMS: cfg.Retry.BaseMs, Factor: cfg.Retry.Factor, Jitter: cfg.Retry.Jitter},
	}

	var appliedCodes []string

	if override.Http != nil {
		fields := events.Fields{}
		if override.Http.FollowRedirects != nil && *override.Http.FollowRedirects != eff.Http.FollowRedirects {
			eff.Http.FollowRedirects = *override.Http.FollowRedirects
			fields["followRedirects"] = eff.Http.FollowRedirects
			appliedCodes = append(appliedCodes, "http.followRedirects")
		}
		if override.Http.MaxRedirects != nil && *override.Http.MaxRedirects != eff.Http.MaxRedirects {
			eff.Http.MaxRedirects = *override.Http.MaxRedirects
			fields["maxRedirects"] = eff.Http.MaxRedirects
			appliedCodes = append(appliedCodes, "http.maxRedirects")
		}
		if len(fields) > 0 && bus != nil && appliedEventsEnabled() {
			bus.Publish(events.HttpApplied(taskID, fields))
		}
	}

	if override.Tls != nil {
		fields := events.Fields{}
		if override.Tls.InsecureSkipVerify != nil && *override.Tls.InsecureSkipVerify != eff.Tls.InsecureSkipVerify {
			eff.Tls.InsecureSkipVerify = *override.Tls.InsecureSkipVerify
			fields["insecureSkipVerify"] = eff.Tls.InsecureSkipVerify
			appliedCodes = append(appliedCodes, "tls.insecureSkipVerify")
		}
		if override.Tls.SkipSanWhitelist != nil && *override.Tls.SkipSanWhitelist != eff.Tls.SkipSanWhitelist {
			eff.Tls.SkipSanWhitelist = *override.Tls.SkipSanWhitelist
			fields["skipSanWhitelist"] = eff.Tls.SkipSanWhitelist
			appliedCodes = append(appliedCodes, "tls.skipSanWhitelist")
		}
		if len(fields) > 0 && bus != nil && appliedEventsEnabled() {
			bus.Publish(events.TlsApplied(taskID, fields))
		}
	}

	if override.Retry != nil {
		global := eff.Retry
		if override.Retry.Max != nil {
			eff.Retry.Max = *override.Retry.Max
		}
		if override.Retry.BaseMS != nil {
			eff.Retry.BaseMS = *override.Retry.BaseMS
		}
		if override.Retry.Factor != nil {
			eff.Retry.Factor = *override.Retry.Factor
		}
		if override.Retry.Jitter != nil {
			eff.Retry.Jitter = *override.Retry.Jitter
		}
		if _, changed := retry.ComputeRetryDiff(global, eff.Retry); changed {
			appliedCodes = append(appliedCodes, "retry")
			if bus != nil && appliedEventsEnabled() {
				bus.Publish(events.New(events.FamilyPolicy, events.VariantRetryApplied, events.Fields{
					"id": taskID, "max": eff.Retry.Max, "baseMs": eff.Retry.BaseMS,
					"factor": eff.Retry.Factor, "jitter": eff.Retry.Jitter,
				}))
			}
		}
	}

	if bus != nil {
		for _, c := range conflicts {
			bus.Publish(events.Conflict(taskID, c.section, c.reason))
		}
		if len(ignored.TopLevel) > 0 || len(ignored.Nested) > 0 {
			bus.Publish(events.IgnoredFieldsEvent(taskID, ignored.TopLevel, ignored.Nested))
		}
		sort.Strings(appliedCodes)
		bus.Publish(events.Summary(taskID, events.Fields{
			"kind":             kind,
			"http_follow":      eff.Http.FollowRedirects,
			"http_max":         eff.Http.MaxRedirects,
			"retry_max":        eff.Retry.Max,
			"retry_base_ms":    eff.Retry.BaseMS,
			"retry_factor":     eff.Retry.Factor,
			"retry_jitter":     eff.Retry.Jitter,
			"tls_insecure":     eff.Tls.InsecureSkipVerify,
			"tls_skip_san":     eff.Tls.SkipSanWhitelist,
			"applied_codes":    appliedCodes,
			"filter_requested": filterRequested,
		}))
	}

	return eff
}
