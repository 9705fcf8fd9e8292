package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics tracks public booking flow transitions and confirmed reservations.
type BookingMetrics struct {
	transitions *prometheus.CounterVec
	confirmed   prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legalinmo",
			Subsystem: "booking",
			Name:      "flow_transitions_total",
			Help:      "Booking flow transitions by source stage, target stage and outcome",
		}, []string{"from", "to", "outcome"}),
		confirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "legalinmo",
			Subsystem: "booking",
			Name:      "reservations_confirmed_total",
			Help:      "Reservations confirmed through the public flow",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitions, m.confirmed)
	return m
}

func (m *BookingMetrics) ObserveTransition(from, to, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to, outcome).Inc()
}

func (m *BookingMetrics) ObserveConfirmed() {
	if m == nil {
		return
	}
	m.confirmed.Inc()
}

// UpstreamMetrics tracks calls to the external REST API.
type UpstreamMetrics struct {
	latency *prometheus.HistogramVec
}

func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	m := &UpstreamMetrics{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "legalinmo",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of external API requests by operation and outcome",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.latency)
	return m
}

func (m *UpstreamMetrics) ObserveRequest(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(operation, outcome).Observe(d.Seconds())
}
