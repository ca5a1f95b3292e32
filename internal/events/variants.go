package events

// Task family variants (spec.md §3, §4.8).
const (
	VariantTaskCreated   = "Created"
	VariantTaskStarted   = "Started"
	VariantTaskProgress  = "Progress"
	VariantTaskCompleted = "Completed"
	VariantTaskCanceled  = "Canceled"
	VariantTaskFailed    = "Failed"
)

// Policy family variants.
const (
	VariantRetryApplied = "RetryApplied"
)

// Transport family variants (spec.md §4.5, §4.9 partial filter).
const (
	VariantPartialFilterCapability = "PartialFilterCapability"
	VariantPartialFilterUnsupported = "PartialFilterUnsupported"
	VariantPartialFilterFallback   = "PartialFilterFallback"
	VariantFallbackTransition      = "Transition"
	VariantFakeSniAutoDisabled     = "AutoDisabled"
	VariantFakeSniRecovered        = "Recovered"
)

// Strategy family variants (spec.md §4.3, §4.7).
const (
	VariantHttpApplied        = "HttpApplied"
	VariantTlsApplied         = "TlsApplied"
	VariantConflict           = "Conflict"
	VariantSummary            = "Summary"
	VariantAdaptiveTlsRollout = "AdaptiveTlsRollout"
	VariantIgnoredFields      = "IgnoredFields"
	VariantIpPoolSelection    = "IpPoolSelection"
	VariantIpPoolRefresh      = "IpPoolRefresh"
	VariantIpPoolIpTripped    = "IpPoolIpTripped"
	VariantIpPoolIpRecovered  = "IpPoolIpRecovered"
	VariantIpPoolCidrFilter   = "IpPoolCidrFilter"
	VariantIpPoolConfigUpdate = "IpPoolConfigUpdate"
	VariantIpPoolAutoDisable  = "IpPoolAutoDisable"
	VariantIpPoolAutoEnable   = "IpPoolAutoEnable"
)

// TaskCreated builds a Task::Created event.
func TaskCreated(taskID, kind string) Event {
	return New(FamilyTask, VariantTaskCreated, Fields{"id": taskID, "kind": kind})
}

// TaskStarted builds a Task::Started event.
func TaskStarted(taskID, kind string) Event {
	return New(FamilyTask, VariantTaskStarted, Fields{"id": taskID, "kind": kind})
}

// TaskProgress builds a Task::Progress event.
func TaskProgress(taskID string, message string, increment *float64) Event {
	fields := Fields{"id": taskID}
	if message != "" {
		fields["message"] = message
	}
	if increment != nil {
		fields["increment"] = *increment
	}
	return New(FamilyTask, VariantTaskProgress, fields)
}

// TaskCompleted builds a Task::Completed event.
func TaskCompleted(taskID string) Event {
	return New(FamilyTask, VariantTaskCompleted, Fields{"id": taskID})
}

// TaskCanceled builds a Task::Canceled event. No message field per spec.md §7.
func TaskCanceled(taskID string) Event {
	return New(FamilyTask, VariantTaskCanceled, Fields{"id": taskID})
}

// TaskFailed builds a Task::Failed event.
func TaskFailed(taskID string, category string, code string, message string) Event {
	fields := Fields{"id": taskID, "category": category, "message": message}
	if code != "" {
		fields["code"] = code
	}
	return New(FamilyTask, VariantTaskFailed, fields)
}

// HttpApplied builds a Strategy::HttpApplied event describing the effective
// http override fields that diverged from the global config.
func HttpApplied(taskID string, fields Fields) Event {
	fields["id"] = taskID
	return New(FamilyStrategy, VariantHttpApplied, fields)
}

// TlsApplied builds a Strategy::TlsApplied event.
func TlsApplied(taskID string, fields Fields) Event {
	fields["id"] = taskID
	return New(FamilyStrategy, VariantTlsApplied, fields)
}

// Conflict builds a Strategy::Conflict event for a normalized override
// conflict (spec.md §4.7).
func Conflict(taskID, section, reason string) Event {
	return New(FamilyStrategy, VariantConflict, Fields{"id": taskID, "section": section, "reason": reason})
}

// IgnoredFieldsEvent builds a Strategy::IgnoredFields event.
func IgnoredFieldsEvent(taskID string, topLevel []string, nested map[string][]string) Event {
	fields := Fields{"id": taskID}
	if len(topLevel) > 0 {
		fields["topLevel"] = topLevel
	}
	if len(nested) > 0 {
		fields["nested"] = nested
	}
	return New(FamilyStrategy, VariantIgnoredFields, fields)
}

// Summary builds a Strategy::Summary event describing a task's final
// effective policy. Unlike HttpApplied/TlsApplied/RetryApplied (gated
// behind FWC_STRATEGY_APPLIED_EVENTS by the caller), Summary is emitted
// exactly once per task regardless of that gate (spec.md §4.7, §6). The
// caller builds fields with the snake_case keys the golden event schema
// names: kind, http_follow, http_max, retry_max, retry_base_ms,
// retry_factor, retry_jitter, tls_insecure, tls_skip_san, applied_codes,
// filter_requested.
func Summary(taskID string, fields Fields) Event {
	fields["id"] = taskID
	return New(FamilyStrategy, VariantSummary, fields)
}

// PartialFilterUnsupported builds a Transport::PartialFilterUnsupported
// event: the caller requested a partial-clone filter the library can't
// honor (spec.md §4.9).
func PartialFilterUnsupported(taskID, requested string) Event {
	return New(FamilyTransport, VariantPartialFilterUnsupported, Fields{"id": taskID, "requested": requested})
}

// PartialFilterFallback builds a Transport::PartialFilterFallback event,
// always emitted immediately after PartialFilterUnsupported.
func PartialFilterFallback(taskID string, shallow bool, message string) Event {
	return New(FamilyTransport, VariantPartialFilterFallback, Fields{"id": taskID, "shallow": shallow, "message": message})
}

// PartialFilterCapability builds a Transport::PartialFilterCapability event
// reporting whether the underlying library can honor the requested filter.
func PartialFilterCapability(taskID string, supported bool) Event {
	return New(FamilyTransport, VariantPartialFilterCapability, Fields{"id": taskID, "supported": supported})
}
