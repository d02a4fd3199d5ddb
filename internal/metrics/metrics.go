package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec
	RateLimitedTotal    prometheus.Counter

	// Lookup Metrics
	LookupsTotal        *prometheus.CounterVec
	LookupErrors        *prometheus.CounterVec
	CountryStoreQueries *prometheus.CounterVec

	// Update cycle metrics
	UpdateCyclesTotal    *prometheus.CounterVec
	UpdateCycleDuration  prometheus.Histogram
	LastSuccessfulUpdate prometheus.Gauge
	DatabaseReloadsTotal *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
// A nil reg means the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "endpoint", "status"},
		),

		RateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
		),

		// Lookup Metrics
		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geodb_lookups_total",
				Help: "Total number of IP and country lookups",
			},
			[]string{"kind", "result"},
		),

		LookupErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geodb_lookup_errors_total",
				Help: "Total number of lookup errors",
			},
			[]string{"error_type"},
		),

		CountryStoreQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "country_store_queries_total",
				Help: "Total number of country datastore queries",
			},
			[]string{"status"},
		),

		// Update cycle metrics
		UpdateCyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geodb_update_cycles_total",
				Help: "Total number of update cycles by outcome",
			},
			[]string{"outcome"},
		),

		UpdateCycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "geodb_update_cycle_duration_seconds",
				Help:    "Duration of update cycles in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 9),
			},
		),

		LastSuccessfulUpdate: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "geodb_last_successful_update_timestamp_seconds",
				Help: "Unix time of the last committed update",
			},
		),

		DatabaseReloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geodb_reloads_total",
				Help: "Total number of database and country store reloads",
			},
			[]string{"target", "status"},
		),
	}
}
