package strategy

// conflict records a single normalization decision made while reconciling
// an override (spec.md §4.7's Conflict event).
type conflict struct {
	section string
	reason  string
}

// normalizeHttp applies the http conflict rules: followRedirects=false
// forces maxRedirects=0, and maxRedirects is clamped to the protocol-wide
// ceiling of 20 (spec.md §9 open question resolution).
func normalizeHttp(o *HttpOverride) []conflict {
	if o == nil {
		return nil
	}
	var conflicts []conflict
	if o.FollowRedirects != nil && !*o.FollowRedirects && o.MaxRedirects != nil && *o.MaxRedirects > 0 {
		zero := uint8(0)
		o.MaxRedirects = &zero
		conflicts = append(conflicts, conflict{section: "http", reason: "followRedirects=false forces maxRedirects=0"})
	}
	if o.MaxRedirects != nil && *o.MaxRedirects > 20 {
		clamped := uint8(20)
		o.MaxRedirects = &clamped
		conflicts = append(conflicts, conflict{section: "http", reason: "maxRedirects clamped to 20"})
	}
	return conflicts
}

// normalizeTls applies the tls conflict rule: insecureSkipVerify=true
// forces skipSanWhitelist=false, since skipping the whitelist on top of
// skipping verification entirely would leave no host-identity check at all.
func normalizeTls(o *TlsOverride) []conflict {
	if o == nil {
		return nil
	}
	var conflicts []conflict
	if o.InsecureSkipVerify != nil && *o.InsecureSkipVerify && o.SkipSanWhitelist != nil && *o.SkipSanWhitelist {
		no := false
		o.SkipSanWhitelist = &no
		conflicts = append(conflicts, conflict{section: "tls", reason: "insecureSkipVerify=true forces skipSanWhitelist=false"})
	}
	return conflicts
}

// normalizeRetry has no cross-field conflicts today; range validation
// already happened in Parse.
func normalizeRetry(o *RetryOverride) []conflict {
	return nil
}

// Normalize mutates o in place to resolve cross-field conflicts and returns
// the list of conflicts that were found, in section order (http, tls, retry).
func Normalize(o *Override) []conflict {
	var conflicts []conflict
	conflicts = append(conflicts, normalizeHttp(o.Http)...)
	conflicts = append(conflicts, normalizeTls(o.Tls)...)
	conflicts = append(conflicts, normalizeRetry(o.Retry)...)
	return conflicts
}
