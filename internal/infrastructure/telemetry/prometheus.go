package telemetry

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metric names
const (
	MetricHTTPRequestsTotal   = "vsla_http_requests_total"
	MetricHTTPRequestDuration = "vsla_http_request_duration_seconds"
	MetricHTTPInFlight        = "vsla_http_requests_in_flight"
)

// HTTPDurationBuckets are the request latency boundaries in seconds
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// PrometheusRegistry owns a private registry served on /metrics. It carries
// Go runtime, process and connection pool collectors plus HTTP request
// metrics.
type PrometheusRegistry struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewPrometheusRegistry creates a registry. A nil db skips the pool
// collector.
func NewPrometheusRegistry(db *sql.DB, dbName string) *PrometheusRegistry {
	r := &PrometheusRegistry{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDuration,
			Help:    "HTTP request latency by method and route",
			Buckets: HTTPDurationBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricHTTPInFlight,
			Help: "HTTP requests currently being served",
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.requests,
		r.duration,
		r.inFlight,
	)
	if db != nil {
		r.registry.MustRegister(collectors.NewDBStatsCollector(db, dbName))
	}
	return r
}

// Begin marks a request in flight and returns the function that records its
// outcome
func (r *PrometheusRegistry) Begin() func(method, route string, status int, elapsed time.Duration) {
	r.inFlight.Inc()
	return func(method, route string, status int, elapsed time.Duration) {
		r.inFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		r.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (r *PrometheusRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the registry for tests
func (r *PrometheusRegistry) Gatherer() prometheus.Gatherer {
	return r.registry
}
