// Package metrics bundles Prometheus collectors for the scheduler.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates every collector on a dedicated registry so the
// keep-alive listener can expose them without touching the default one.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal          *prometheus.CounterVec
	RequestDuration        prometheus.Histogram
	RetriesTotal           prometheus.Counter
	ErrorsTotal            *prometheus.CounterVec
	PollRoundsTotal        prometheus.Counter
	AvailabilityFoundTotal prometheus.Counter
	HoldsTotal             *prometheus.CounterVec
	BookingsTotal          *prometheus.CounterVec
}

// New constructs and registers all metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dps_requests_total",
			Help: "Total HTTP requests issued against the scheduling API.",
		},
		[]string{"path", "outcome"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dps_request_duration_seconds",
			Help:    "Latency of scheduling API requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dps_retries_total",
			Help: "Total request retry attempts.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dps_errors_total",
			Help: "Total errors by type.",
		},
		[]string{"error_type"},
	)
	rounds := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dps_poll_rounds_total",
			Help: "Completed availability poll rounds.",
		},
	)
	found := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dps_availability_found_total",
			Help: "Poll checks that produced a bookable candidate.",
		},
	)
	holds := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dps_holds_total",
			Help: "Slot hold attempts by result.",
		},
		[]string{"result"},
	)
	bookings := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dps_bookings_total",
			Help: "Booking attempts by result.",
		},
		[]string{"result"},
	)

	registry.MustRegister(requests, requestDuration, retries, errorsTotal, rounds, found, holds, bookings)

	return &Metrics{
		Registry:               registry,
		RequestsTotal:          requests,
		RequestDuration:        requestDuration,
		RetriesTotal:           retries,
		ErrorsTotal:            errorsTotal,
		PollRoundsTotal:        rounds,
		AvailabilityFoundTotal: found,
		HoldsTotal:             holds,
		BookingsTotal:          bookings,
	}
}

// IncRequest increments the request counter for a path and outcome label.
func (m *Metrics) IncRequest(path, outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(path, outcome).Inc()
}

// ObserveDuration records one request's latency.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncRetries increments the retry counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the error counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncRound increments the completed poll round counter.
func (m *Metrics) IncRound() {
	if m == nil {
		return
	}
	m.PollRoundsTotal.Inc()
}

// IncAvailabilityFound increments the candidate-found counter.
func (m *Metrics) IncAvailabilityFound() {
	if m == nil {
		return
	}
	m.AvailabilityFoundTotal.Inc()
}

// IncHold increments the hold counter for a result label.
func (m *Metrics) IncHold(result string) {
	if m == nil {
		return
	}
	m.HoldsTotal.WithLabelValues(result).Inc()
}

// IncBooking increments the booking counter for a result label.
func (m *Metrics) IncBooking(result string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(result).Inc()
}
