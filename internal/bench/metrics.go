package bench

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// recorder holds the per-run collectors.
type recorder struct {
	duration    prometheus.Histogram
	invocations *prometheus.CounterVec
}

func newRecorder(registerer prometheus.Registerer) *recorder {
	r := &recorder{
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxfn_invoke_duration_seconds",
			Help:    "Handler invocation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taxfn_invocations_total",
			Help: "Handler invocations by outcome",
		}, []string{"outcome"}),
	}

	if registerer != nil {
		registerer.MustRegister(r.duration)
		registerer.MustRegister(r.invocations)
	}

	return r
}

func (r *recorder) observe(s sample) {
	r.invocations.WithLabelValues(s.outcome).Inc()
	if s.outcome != OutcomeError {
		r.duration.Observe(s.latency.Seconds())
	}
}

// Gatherer exposes the run's collectors.
func (r *Report) Gatherer() prometheus.Gatherer {
	return r.gatherer
}

// WriteMetrics writes the run's collectors to path in the Prometheus text
// format, for pickup by a node exporter textfile collector.
func (r *Report) WriteMetrics(path string) error {
	if r.gatherer == nil {
		return fmt.Errorf("bench: report has no metrics")
	}
	if err := prometheus.WriteToTextfile(path, r.gatherer); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
