// Package strategy parses and applies per-task HTTP/TLS/retry policy
// overrides on top of the global config, normalizing conflicts and emitting
// the applied/ignored/conflict/summary events spec.md §4.7 describes.
package strategy

import (
	"encoding/json"
	"fmt"

	gerrors "github.com/fireworks/gitengine/internal/errors"
)

// HttpOverride is the recognized "http" section of a task override.
type HttpOverride struct {
	FollowRedirects *bool
	MaxRedirects    *uint8
}

// TlsOverride is the recognized "tls" section of a task override.
type TlsOverride struct {
	InsecureSkipVerify *bool
	SkipSanWhitelist   *bool
}

// RetryOverride is the recognized "retry" section of a task override.
type RetryOverride struct {
	Max    *uint32
	BaseMS *uint32
	Factor *float64
	Jitter *bool
}

// Override is the parsed, not-yet-normalized per-task policy override.
type Override struct {
	Http  *HttpOverride
	Tls   *TlsOverride
	Retry *RetryOverride
}

// IgnoredFields lists unrecognized fields found while parsing, grouped per
// spec.md §4.7's IgnoredFields{top_level, nested} shape.
type IgnoredFields struct {
	TopLevel []string
	Nested   map[string][]string // section -> unknown field names
}

var httpFields = map[string]struct{}{"followRedirects": {}, "maxRedirects": {}}
var tlsFields = map[string]struct{}{"insecureSkipVerify": {}, "skipSanWhitelist": {}}
var retryFields = map[string]struct{}{"max": {}, "baseMs": {}, "factor": {}, "jitter": {}}
var topLevelFields = map[string]struct{}{"http": {}, "tls": {}, "retry": {}}

// Parse decodes a task's override JSON, validating the closed field sets
// spec.md §4.7 documents. Invalid values (out-of-range retry fields) return
// a Protocol-categorized error per spec.md §4.8's fail-fast requirement;
// unknown fields never fail parsing, they are collected into IgnoredFields.
func Parse(raw json.RawMessage) (*Override, IgnoredFields, error) {
	ignored := IgnoredFields{Nested: map[string][]string{}}
	if len(raw) == 0 {
		return &Override{}, ignored, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, ignored, gerrors.ProtocolError(fmt.Sprintf("invalid strategy override: %v", err)).
			WithCode("strategy_override_malformed").Build()
	}

	out := &Override{}
	for key, value := range top {
		switch key {
		case "http":
			h, nestedIgnored, err := parseHttp(value)
			if err != nil {
				return nil, ignored, err
			}
			out.Http = h
			if len(nestedIgnored) > 0 {
				ignored.Nested["http"] = nestedIgnored
			}
		case "tls":
			tl, nestedIgnored, err := parseTls(value)
			if err != nil {
				return nil, ignored, err
			}
			out.Tls = tl
			if len(nestedIgnored) > 0 {
				ignored.Nested["tls"] = nestedIgnored
			}
		case "retry":
			r, nestedIgnored, err := parseRetry(value)
			if err != nil {
				return nil, ignored, err
			}
			out.Retry = r
			if len(nestedIgnored) > 0 {
				ignored.Nested["retry"] = nestedIgnored
			}
		default:
			ignored.TopLevel = append(ignored.TopLevel, key)
		}
	}
	return out, ignored, nil
}

func parseHttp(raw json.RawMessage) (*HttpOverride, []string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil, gerrors.ProtocolError(fmt.Sprintf("invalid http override: %v", err)).Build()
	}
	out := &HttpOverride{}
	var unknown []string
	for k, v := range fields {
		if _, ok := httpFields[k]; !ok {
			unknown = append(unknown, k)
			continue
		}
		switch k {
		case "followRedirects":
			var b bool
			if err := json.Unmarshal(v, &b); err != nil {
				return nil, nil, gerrors.ProtocolError("http.followRedirects must be a bool").Build()
			}
			out.FollowRedirects = &b
		case "maxRedirects":
			var n int
			if err := json.Unmarshal(v, &n); err != nil || n < 0 {
				return nil, nil, gerrors.ProtocolError("http.maxRedirects must be a non-negative integer").Build()
			}
			u := uint8(n)
			if n > 255 {
				u = 255
			}
			out.MaxRedirects = &u
		}
	}
	return out, unknown, nil
}

func parseTls(raw json.RawMessage) (*TlsOverride, []string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil, gerrors.ProtocolError(fmt.Sprintf("invalid tls override: %v", err)).Build()
	}
	out := &TlsOverride{}
	var unknown []string
	for k, v := range fields {
		if _, ok := tlsFields[k]; !ok {
			unknown = append(unknown, k)
			continue
		}
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return nil, nil, gerrors.ProtocolError(fmt.Sprintf("tls.%s must be a bool", k)).Build()
		}
		switch k {
		case "insecureSkipVerify":
			out.InsecureSkipVerify = &b
		case "skipSanWhitelist":
			out.SkipSanWhitelist = &b
		}
	}
	return out, unknown, nil
}

func parseRetry(raw json.RawMessage) (*RetryOverride, []string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil, gerrors.ProtocolError(fmt.Sprintf("invalid retry override: %v", err)).Build()
	}
	out := &RetryOverride{}
	var unknown []string
	for k, v := range fields {
		if _, ok := retryFields[k]; !ok {
			unknown = append(unknown, k)
			continue
		}
		switch k {
		case "max":
			var n int64
			if err := json.Unmarshal(v, &n); err != nil || n < 0 || n > 10 {
				return nil, nil, gerrors.ProtocolError("retry.max must be in [0,10]").Build()
			}
			u := uint32(n)
			out.Max = &u
		case "baseMs":
			var n int64
			if err := json.Unmarshal(v, &n); err != nil || n < 50 || n > 2000 {
				return nil, nil, gerrors.ProtocolError("retry.baseMs must be in [50,2000]").Build()
			}
			u := uint32(n)
			out.BaseMS = &u
		case "factor":
			var f float64
			if err := json.Unmarshal(v, &f); err != nil || f < 0.5 || f > 10.0 {
				return nil, nil, gerrors.ProtocolError("retry.factor must be in [0.5,10.0]").Build()
			}
			out.Factor = &f
		case "jitter":
			var b bool
			if err := json.Unmarshal(v, &b); err != nil {
				return nil, nil, gerrors.ProtocolError("retry.jitter must be a bool").Build()
			}
			out.Jitter = &b
		}
	}
	return out, unknown, nil
}
