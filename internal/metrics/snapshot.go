package metrics

import (
	"math"
	"sort"
)

// DefaultQuantiles matches spec's default snapshot quantile set.
var DefaultQuantiles = []float64{0.50, 0.95, 0.99}

// Query selects what a Snapshot call returns.
type Query struct {
	Names     []string // empty means all registered metrics
	Range     Window
	Quantiles []float64 // empty means DefaultQuantiles
	MaxSeries int       // 0 means unlimited
}

// Series is one label combination's aggregated view for the query window.
type Series struct {
	Name      string
	Labels    map[string]string
	Count     int
	Sum       float64
	Quantiles map[float64]float64 // only populated for Histogram metrics
}

// Snapshot computes the requested aggregation across registered metrics.
func (r *Registry) Snapshot(q Query) []Series {
	if q.Range == "" {
		q.Range = LastHour
	}
	quantiles := q.Quantiles
	if len(quantiles) == 0 {
		quantiles = DefaultQuantiles
	}

	r.mu.Lock()
	names := q.Names
	if len(names) == 0 {
		for name := range r.descriptors {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	descriptors := make(map[string]Descriptor, len(names))
	seriesMaps := make(map[string]map[string]*series, len(names))
	for _, name := range names {
		descriptors[name] = r.descriptors[name]
		seriesMaps[name] = r.series[name]
	}
	now := r.clock.Now()
	r.mu.Unlock()

	var out []Series
	for _, name := range names {
		d, ok := descriptors[name]
		if !ok {
			continue
		}
		for _, s := range seriesMaps[name] {
			samples := s.inWindow(now, q.Range)
			ser := Series{Name: name, Labels: s.labels, Count: len(samples)}
			var sum float64
			values := make([]float64, 0, len(samples))
			for _, sm := range samples {
				sum += sm.value
				values = append(values, sm.value)
			}
			ser.Sum = sum
			if d.Kind == Histogram {
				ser.Quantiles = computeQuantiles(values, quantiles)
			}
			out = append(out, ser)
			if q.MaxSeries > 0 && len(out) >= q.MaxSeries {
				return out
			}
		}
	}
	return out
}

// computeQuantiles sorts values and picks the nearest-rank element per
// quantile, matching the percentile idiom used throughout this engine.
func computeQuantiles(values []float64, quantiles []float64) map[float64]float64 {
	result := make(map[float64]float64, len(quantiles))
	if len(values) == 0 {
		for _, q := range quantiles {
			result[q] = 0
		}
		return result
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	for _, q := range quantiles {
		idx := int(math.Ceil(float64(len(sorted))*q)) - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		result[q] = sorted[idx]
	}
	return result
}
