// Package transport implements the Adaptive TLS Transport: a per-request
// state machine that mediates HTTPS connections through a Fake→Real→Default
// SNI fallback chain, real-host certificate verification, and an
// auto-disable circuit over the fake-SNI stage (spec.md §4.5).
package transport

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/fireworks/gitengine/internal/config"
	"github.com/fireworks/gitengine/internal/events"
	"github.com/fireworks/gitengine/internal/logfields"
	"github.com/fireworks/gitengine/internal/tlsverify"
)

// AdaptiveTransport implements http.RoundTripper, rewriting the TLS SNI per
// request according to the Fake/Real/Default stage machine and falling back
// one stage at a time on Network|Tls|Verify errors.
type AdaptiveTransport struct {
	base          *http.Transport
	cfg           config.Config
	verifier      *tlsverify.Verifier
	bus           *events.Bus
	autoDisable   *autoDisableWindow
	sticky        *stickySNI
	onFingerprint func(host string, bundle tlsverify.FingerprintBundle)
}

// NewAdaptiveTransport builds a transport wired to the given config and
// verifier. bus may be nil, in which case transitions are still recorded on
// the request Scope but no events are published.
func NewAdaptiveTransport(cfg config.Config, verifier *tlsverify.Verifier, bus *events.Bus) *AdaptiveTransport {
	t := &AdaptiveTransport{
		cfg:      cfg,
		verifier: verifier,
		bus:      bus,
		sticky:   newStickySNI(),
		autoDisable: newAutoDisableWindow(
			20,
			defaultInt(cfg.Http.AutoDisableFakeThresholdPct, 50),
			time.Duration(defaultUint32(cfg.Http.AutoDisableFakeCooldownSec, 60))*time.Second,
		),
	}
	base := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: true,
	}
	base.DialTLSContext = t.dialTLSContext
	t.base = base
	return t
}

func defaultInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func defaultUint32(v, fallback uint32) uint32 {
	if v == 0 {
		return fallback
	}
	return v
}

// skip reports whether the custom transport should step entirely out of the
// way: an active proxy means there is nothing for this transport to
// mediate. An empty fake-SNI host list does not skip it.
func (t *AdaptiveTransport) skip() bool {
	return t.cfg.Proxy.Active()
}

// RoundTrip implements http.RoundTripper, running the Fake→Real→Default
// fallback chain for a single logical request.
func (t *AdaptiveTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" || t.skip() {
		return t.base.RoundTrip(req)
	}

	scope := ScopeFrom(req.Context())
	host := req.URL.Hostname()
	now := time.Now()

	autoDisabled := t.autoDisable.isDisabled(now)
	rewrite := t.decideRewrite(host, autoDisabled)

	stage := StageDefault
	if rewrite.UsedFake {
		stage = StageFake
	} else if t.cfg.Http.FakeSniEnabled && autoDisabled {
		scope.recordTransition(Transition{From: StageFake, To: StageDefault, Reason: "SkipFakePolicy"})
	}

	for {
		sni := host
		if stage == StageFake {
			sni = rewrite.NewSNI
		}
		attemptCtx := withRealHost(withSNIOverride(req.Context(), sni), host)
		attemptReq := req.Clone(attemptCtx)

		start := time.Now()
		resp, err := t.base.RoundTrip(attemptReq)
		elapsed := time.Since(start)

		if err == nil {
			scope.recordAttempt(stage, elapsed, "")
			if stage == StageFake {
				if tripped, _ := t.autoDisable.record(true, time.Now()); tripped {
					t.publishAutoDisable(host, true)
				}
				t.sticky.set(host, sni)
			} else if wasDisabled, recovered := t.maybeRecover(); recovered {
				slog.Info("fake SNI recovered", logfields.Host(host), slog.Bool("wasDisabled", wasDisabled))
				t.publishRecovered(host)
			}
			return resp, nil
		}

		category := Classify(err)
		scope.recordAttempt(stage, elapsed, category)

		if stage == StageFake {
			if tripped, _ := t.autoDisable.record(false, time.Now()); tripped {
				t.publishAutoDisable(host, true)
			}
		}

		if stage == StageDefault || !IsFallbackCategory(category) {
			return resp, err
		}

		next := nextStage(stage)
		reason := fmt.Sprintf("%s error during %s stage", category, stage)
		transition := Transition{From: stage, To: next, Reason: reason}
		scope.recordTransition(transition)
		if t.bus != nil {
			t.bus.Publish(events.New(events.FamilyTransport, events.VariantFallbackTransition, events.Fields{
				"host": host, "from": stage.String(), "to": next.String(), "reason": reason,
			}))
		}
		stage = next
	}
}

// maybeRecover checks whether a successful Real/Default-stage attempt lands
// at or after an active auto-disable's cooldown deadline. Plain successes
// outside the fake stage don't feed the failure-rate window, but a recovery
// signal still needs exactly one non-fake attempt to observe the clock.
func (t *AdaptiveTransport) maybeRecover() (wasDisabled bool, recovered bool) {
	now := time.Now()
	t.autoDisable.mu.Lock()
	wasDisabled = t.autoDisable.wasDisabled
	t.autoDisable.mu.Unlock()
	if !wasDisabled {
		return false, false
	}
	_, recovered = t.autoDisable.record(true, now)
	return wasDisabled, recovered
}

func (t *AdaptiveTransport) publishAutoDisable(host string, disabled bool) {
	if t.bus == nil {
		return
	}
	t.bus.Publish(events.New(events.FamilyTransport, events.VariantFakeSniAutoDisabled, events.Fields{
		"host": host, "disabled": disabled,
	}))
}

func (t *AdaptiveTransport) publishRecovered(host string) {
	if t.bus == nil {
		return
	}
	t.bus.Publish(events.New(events.FamilyTransport, events.VariantFakeSniRecovered, events.Fields{"host": host}))
}

// Install registers this transport as go-git's HTTP/HTTPS client, mirroring
// the teacher's `transport/http.InstallProtocol` wiring in client.go —
// guarded so repeated calls (e.g. from multiple task workers) are harmless.
var installOnce sync.Once

func Install(t *AdaptiveTransport) {
	installOnce.Do(func() {
		client := &http.Client{Transport: t}
		githttp.InstallProtocol("https", githttp.NewClient(client))
	})
}
