package metrics

import (
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusMirror registers a Prometheus collector per descriptor and
// forwards every Inc/Observe call into both the in-process Registry and the
// Prometheus collectors, so /metrics scraping and the snapshot query API
// stay consistent.
type PrometheusMirror struct {
	once       sync.Once
	registry   *Registry
	promReg    *prom.Registry
	counters   map[string]*prom.CounterVec
	histograms map[string]*prom.HistogramVec
}

// NewPrometheusMirror builds a mirror over reg, registering into promReg (a
// fresh prometheus.Registry is created if nil).
func NewPrometheusMirror(reg *Registry, promReg *prom.Registry) *PrometheusMirror {
	if promReg == nil {
		promReg = prom.NewRegistry()
	}
	return &PrometheusMirror{
		registry:   reg,
		promReg:    promReg,
		counters:   make(map[string]*prom.CounterVec),
		histograms: make(map[string]*prom.HistogramVec),
	}
}

// RegisterDescriptor registers d with both the in-process Registry and the
// Prometheus registry. Safe to call multiple times with the same name.
func (m *PrometheusMirror) RegisterDescriptor(d Descriptor) {
	m.registry.Register(d)
	if _, exists := m.counters[d.Name]; exists {
		return
	}
	if _, exists := m.histograms[d.Name]; exists {
		return
	}
	switch d.Kind {
	case Counter:
		cv := prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gitengine",
			Name:      d.Name,
			Help:      d.Name,
		}, d.Labels)
		m.promReg.MustRegister(cv)
		m.counters[d.Name] = cv
	case Histogram:
		buckets := d.Buckets
		if buckets == nil {
			buckets = LatencyBuckets
		}
		hv := prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "gitengine",
			Name:      d.Name,
			Help:      d.Name,
			Buckets:   buckets,
		}, d.Labels)
		m.promReg.MustRegister(hv)
		m.histograms[d.Name] = hv
	}
}

// Inc increments both the in-process counter and its Prometheus mirror.
func (m *PrometheusMirror) Inc(name string, labels map[string]string, n float64) error {
	if err := m.registry.Inc(name, labels, n); err != nil {
		return err
	}
	if cv, ok := m.counters[name]; ok {
		cv.With(labels).Add(n)
	}
	return nil
}

// Observe records both the in-process histogram sample and its Prometheus
// mirror. Values are milliseconds; Prometheus buckets are also configured in
// milliseconds via LatencyBuckets so no unit conversion happens here.
func (m *PrometheusMirror) Observe(name string, labels map[string]string, valueMS float64) error {
	if err := m.registry.Observe(name, labels, valueMS); err != nil {
		return err
	}
	if hv, ok := m.histograms[name]; ok {
		hv.With(labels).Observe(valueMS)
	}
	return nil
}

// PromRegistry exposes the underlying prometheus.Registry for HTTP exposition.
func (m *PrometheusMirror) PromRegistry() *prom.Registry {
	return m.promReg
}
