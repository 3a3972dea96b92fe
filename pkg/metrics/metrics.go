// Package metrics defines the Prometheus collectors used by the term service
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	ComparisonsTotal     *prometheus.CounterVec
	PrefixLength         prometheus.Histogram
	PrefixLookupsTotal   *prometheus.CounterVec
	RateLimitedTotal     prometheus.Counter
	EventsPublishedTotal prometheus.Counter
	EventsDroppedTotal   prometheus.Counter
	CircuitBreakerState  *prometheus.GaugeVec

	registry *prometheus.Registry
}

// New creates the collectors on a fresh registry, alongside the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		ComparisonsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "term_comparisons_total",
				Help: "Term comparisons by order and outcome (less, equal, greater, error).",
			},
			[]string{"order", "outcome"},
		),
		PrefixLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "term_prefix_length",
				Help:    "Requested prefix length r for prefix operations.",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 50, 100},
			},
		),
		PrefixLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "term_prefix_lookups_total",
				Help: "Query prefix lookups by outcome (ok, error).",
			},
			[]string{"outcome"},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_limited_requests_total",
				Help: "Total requests rejected by the rate limiter.",
			},
		),
		EventsPublishedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "compare_events_published_total",
				Help: "Total comparison events published to Kafka.",
			},
		),
		EventsDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "compare_events_dropped_total",
				Help: "Total comparison events dropped (buffer full or publish failure).",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ComparisonsTotal,
		m.PrefixLength,
		m.PrefixLookupsTotal,
		m.RateLimitedTotal,
		m.EventsPublishedTotal,
		m.EventsDroppedTotal,
		m.CircuitBreakerState,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape HTTP handler for m.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
