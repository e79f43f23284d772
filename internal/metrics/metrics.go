package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder exposes attendance workflow metrics to Prometheus.
type Recorder struct {
	marks    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		marks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "mark_total",
			Help:      "Attendance mark attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "attendance",
			Name:      "mark_duration_seconds",
			Help:      "Time from mark request to outcome, including the biometric prompt.",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
	}
	reg.MustRegister(r.marks, r.duration)
	return r
}

// ObserveMark counts one workflow run.
func (r *Recorder) ObserveMark(outcome string, elapsed time.Duration) {
	r.marks.WithLabelValues(outcome).Inc()
	r.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
