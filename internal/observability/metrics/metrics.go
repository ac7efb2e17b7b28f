// Package metrics exposes Prometheus instrumentation for the booking engine.
// All observer methods are nil-safe so callers can run without metrics wired.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for booking flows and sweeps.
type BookingMetrics struct {
	bookingsTotal    *prometheus.CounterVec
	slotRequests     *prometheus.CounterVec
	sweepTransitions *prometheus.CounterVec
	commitLatency    *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "engine",
			Name:      "bookings_total",
			Help:      "Booking attempts by kind and outcome",
		}, []string{"kind", "outcome"}),
		slotRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "engine",
			Name:      "slot_requests_total",
			Help:      "Slot listing requests by kind and outcome",
		}, []string{"kind", "outcome"}),
		sweepTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "engine",
			Name:      "sweep_transitions_total",
			Help:      "State transitions applied by background sweeps",
		}, []string{"job", "transition"}),
		commitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "engine",
			Name:      "commit_seconds",
			Help:      "Latency of the transactional booking commit",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.slotRequests, m.sweepTransitions, m.commitLatency)
	return m
}

func (m *BookingMetrics) ObserveBooking(kind, outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *BookingMetrics) ObserveSlotRequest(kind, outcome string) {
	if m == nil {
		return
	}
	m.slotRequests.WithLabelValues(kind, outcome).Inc()
}

func (m *BookingMetrics) ObserveSweepTransition(job, transition string) {
	if m == nil {
		return
	}
	m.sweepTransitions.WithLabelValues(job, transition).Inc()
}

func (m *BookingMetrics) ObserveCommitLatency(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.commitLatency.WithLabelValues(kind).Observe(seconds)
}
