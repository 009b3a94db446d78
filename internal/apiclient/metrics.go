package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records upstream API traffic.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg; a nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the restaurant API by resource and outcome.",
		}, []string{"resource", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dashboard",
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of restaurant API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

func (m *Metrics) observe(resource, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(resource, outcome).Inc()
	m.duration.WithLabelValues(resource).Observe(seconds)
}
