package metrics

import "fmt"

// Kind is the shape of a registered metric.
type Kind int

const (
	Counter Kind = iota
	Histogram
)

// LatencyBuckets is the shared bucket set every latency histogram in the
// engine uses, in milliseconds.
var LatencyBuckets = []float64{1, 5, 10, 25, 50, 75, 100, 150, 200, 300, 500, 750, 1000, 1500, 2000, 3000, 5000}

// Descriptor declares a metric's name, kind and label set once at init.
type Descriptor struct {
	Name    string
	Kind    Kind
	Labels  []string
	Buckets []float64 // Histogram only; defaults to LatencyBuckets when nil.
}

func (d Descriptor) labelSet() map[string]struct{} {
	set := make(map[string]struct{}, len(d.Labels))
	for _, l := range d.Labels {
		set[l] = struct{}{}
	}
	return set
}

// validateLabels checks that provided exactly matches the descriptor's
// declared label set: unknown labels and missing labels are both errors.
func (d Descriptor) validateLabels(provided map[string]string) error {
	declared := d.labelSet()
	for k := range provided {
		if _, ok := declared[k]; !ok {
			return fmt.Errorf("metrics: unknown label %q for metric %q", k, d.Name)
		}
	}
	for _, want := range d.Labels {
		if _, ok := provided[want]; !ok {
			return fmt.Errorf("metrics: missing label %q for metric %q", want, d.Name)
		}
	}
	return nil
}
