package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theirongolddev/ghlc/internal/ratelimit"
)

// Metrics holds the process collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// Backend call rate by endpoint and outcome. Watch for: network_error spikes.
	requestsTotal *prometheus.CounterVec
	// Backend latency. Watch for: p95 regressions on create endpoints.
	requestDuration *prometheus.HistogramVec

	quotaRemaining      prometheus.Gauge
	quotaLimit          prometheus.Gauge
	quotaDailyRemaining prometheus.Gauge
	quotaDailyLimit     prometheus.Gauge
	quotaLevel          prometheus.Gauge
	quotaUpdates        prometheus.Counter
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghlc_api_requests_total",
			Help: "Backend API calls by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)
	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghlc_api_request_duration_seconds",
			Help:    "Backend API latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)
	m.quotaRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ghlc_quota_remaining",
		Help: "Requests remaining in the current quota window",
	})
	m.quotaLimit = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ghlc_quota_limit",
		Help: "Capacity of the quota window",
	})
	m.quotaDailyRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ghlc_quota_daily_remaining",
		Help: "Requests remaining today",
	})
	m.quotaDailyLimit = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ghlc_quota_daily_limit",
		Help: "Daily request capacity",
	})
	m.quotaLevel = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ghlc_quota_level",
		Help: "Severity: 0 unknown, 1 good, 2 warning, 3 danger, 4 critical",
	})
	m.quotaUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ghlc_quota_updates_total",
		Help: "Quota snapshots observed",
	})

	m.registry.MustRegister(
		m.requestsTotal, m.requestDuration,
		m.quotaRemaining, m.quotaLimit,
		m.quotaDailyRemaining, m.quotaDailyLimit,
		m.quotaLevel, m.quotaUpdates,
	)
	return m
}

// ObserveRequest implements api.Observer.
func (m *Metrics) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveSnapshot publishes a quota snapshot as gauges.
func (m *Metrics) ObserveSnapshot(s ratelimit.Snapshot) {
	m.quotaRemaining.Set(float64(s.Remaining))
	m.quotaLimit.Set(float64(s.Limit))
	m.quotaDailyRemaining.Set(float64(s.DailyRemaining))
	m.quotaDailyLimit.Set(float64(s.DailyLimit))
	m.quotaLevel.Set(float64(s.Level()))
	m.quotaUpdates.Inc()
}

// Registry exposes the registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
