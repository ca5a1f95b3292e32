package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type sample struct {
	at    time.Time
	value float64
}

// series holds every observation for one label combination of one metric,
// pruned to the longest window (LastDay) on each write.
type series struct {
	mu      sync.Mutex
	labels  map[string]string
	samples []sample
}

func (s *series) record(clock Clock, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := clock.Now()
	s.samples = append(s.samples, sample{at: now, value: value})
	s.prune(now)
}

// prune drops samples older than the longest supported window (LastDay).
func (s *series) prune(now time.Time) {
	cutoff := now.Add(-windowDuration(LastDay))
	i := 0
	for i < len(s.samples) && s.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.samples = s.samples[i:]
	}
}

func (s *series) inWindow(now time.Time, w Window) []sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-windowDuration(w))
	out := make([]sample, 0, len(s.samples))
	for _, sm := range s.samples {
		if !sm.at.Before(cutoff) {
			out = append(out, sm)
		}
	}
	return out
}

// Registry is the process-wide set of registered metric descriptors and
// their observed data. Registration is idempotent: registering the same
// name twice with an identical descriptor is a no-op.
type Registry struct {
	mu          sync.Mutex
	descriptors map[string]Descriptor
	series      map[string]map[string]*series // metric name -> label key -> series
	clock       Clock
}

// NewRegistry constructs a Registry using the given Clock (RealClock in
// production, ManualClock in tests).
func NewRegistry(clock Clock) *Registry {
	if clock == nil {
		clock = RealClock{}
	}
	return &Registry{
		descriptors: make(map[string]Descriptor),
		series:      make(map[string]map[string]*series),
		clock:       clock,
	}
}

// Register adds a descriptor. A second call with the same name is a no-op
// regardless of whether the descriptor shape matches, per spec.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.descriptors[d.Name]; exists {
		return
	}
	if d.Kind == Histogram && d.Buckets == nil {
		d.Buckets = LatencyBuckets
	}
	r.descriptors[d.Name] = d
	r.series[d.Name] = make(map[string]*series)
}

func labelKey(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	return b.String()
}

func (r *Registry) seriesFor(name string, labels map[string]string) (*series, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.descriptors[name]
	if !ok {
		return nil, fmt.Errorf("metrics: unknown metric %q", name)
	}
	if err := d.validateLabels(labels); err != nil {
		return nil, err
	}
	key := labelKey(labels)
	s, ok := r.series[name][key]
	if !ok {
		cp := make(map[string]string, len(labels))
		for k, v := range labels {
			cp[k] = v
		}
		s = &series{labels: cp}
		r.series[name][key] = s
	}
	return s, nil
}

// Inc adds n to the named counter for the given label set.
func (r *Registry) Inc(name string, labels map[string]string, n float64) error {
	s, err := r.seriesFor(name, labels)
	if err != nil {
		return err
	}
	s.record(r.clock, n)
	return nil
}

// Observe records a histogram observation (a latency in milliseconds by
// convention) for the named metric and label set.
func (r *Registry) Observe(name string, labels map[string]string, valueMS float64) error {
	s, err := r.seriesFor(name, labels)
	if err != nil {
		return err
	}
	s.record(r.clock, valueMS)
	return nil
}
