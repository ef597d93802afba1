package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "columnmap"

// Metrics tracks boundary crossings per host handle. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	crossings *prometheus.CounterVec
	values    *prometheus.CounterVec
	failures  *prometheus.CounterVec
	dropped   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		crossings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "boundary_crossings_total",
			Help:      "Calls made across the host boundary.",
		}, []string{"handle"}),
		values: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "boundary_values_total",
			Help:      "Values sent across the host boundary.",
		}, []string{"handle"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "boundary_failures_total",
			Help:      "Failed calls across the host boundary.",
		}, []string{"handle", "reason"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "boundary_dropped_requests_total",
			Help:      "Requests abandoned by the caller before crossing.",
		}, []string{"handle"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "boundary_call_duration_seconds",
			Help:      "Time spent inside the host callback.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handle"}),
	}
	if reg != nil {
		reg.MustRegister(m.crossings, m.values, m.failures, m.dropped, m.duration)
	}
	return m
}

func (obj *Metrics) observeCall(handle string, numValues int, elapsed time.Duration, err error) {
	if obj == nil {
		return
	}
	obj.crossings.WithLabelValues(handle).Inc()
	obj.values.WithLabelValues(handle).Add(float64(numValues))
	obj.duration.WithLabelValues(handle).Observe(elapsed.Seconds())
	if err != nil {
		obj.failures.WithLabelValues(handle, "host").Inc()
	}
}

func (obj *Metrics) observeFailure(handle, reason string) {
	if obj == nil {
		return
	}
	obj.failures.WithLabelValues(handle, reason).Inc()
}

func (obj *Metrics) observeDrop(handle string) {
	if obj == nil {
		return
	}
	obj.dropped.WithLabelValues(handle).Inc()
}
