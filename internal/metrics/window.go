package metrics

import "time"

// Window names the aggregation ranges a snapshot query can request. Every
// window is computed from the same raw per-sample store, kept for up to 24h,
// so quantiles are exact; there is no per-window storage resolution.
type Window string

const (
	LastMinute      Window = "LastMinute"
	LastFiveMinutes Window = "LastFiveMinutes"
	LastHour        Window = "LastHour"
	LastDay         Window = "LastDay"
)

func windowDuration(w Window) time.Duration {
	switch w {
	case LastMinute:
		return time.Minute
	case LastFiveMinutes:
		return 5 * time.Minute
	case LastHour:
		return time.Hour
	case LastDay:
		return 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}
