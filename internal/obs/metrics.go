package obs

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	requests        prometheus.Counter
	rateLimitDrops  prometheus.Counter
	cacheHits       *prometheus.CounterVec
	providerErrors  *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	skippedEntries  *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	registry        *prometheus.Registry
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hotelfeed_search_requests_total",
			Help: "Total number of search requests",
		}),
		rateLimitDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hotelfeed_ratelimit_drops_total",
			Help: "Requests rejected by the rate limiter",
		}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotelfeed_cache_hits_total",
			Help: "Search envelopes served from cache",
		}, []string{"provider"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotelfeed_provider_errors_total",
			Help: "Failed live fetches per provider",
		}, []string{"provider"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotelfeed_demo_fallbacks_total",
			Help: "Searches answered with synthesized demo inventory",
		}, []string{"provider"}),
		skippedEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotelfeed_skipped_entries_total",
			Help: "Provider entries dropped during normalization",
		}, []string{"provider"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hotelfeed_provider_latency_seconds",
			Help:    "Live fetch latency per provider",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotelfeed_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hotelfeed_http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		registry: reg,
	}

	reg.MustRegister(
		m.requests,
		m.rateLimitDrops,
		m.cacheHits,
		m.providerErrors,
		m.fallbacks,
		m.skippedEntries,
		m.providerLatency,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() { m.requests.Inc() }

// IncRateLimitDrops counts a rejected request.
func (m *Metrics) IncRateLimitDrops() { m.rateLimitDrops.Inc() }

// IncCacheHits increments the cache hits counter.
func (m *Metrics) IncCacheHits(provider string) {
	m.cacheHits.WithLabelValues(provider).Inc()
}

// IncProviderErrors increments the provider errors counter.
func (m *Metrics) IncProviderErrors(provider string) {
	m.providerErrors.WithLabelValues(provider).Inc()
}

// IncFallbacks counts a demo fallback.
func (m *Metrics) IncFallbacks(provider string) {
	m.fallbacks.WithLabelValues(provider).Inc()
}

// AddSkippedEntries counts entries dropped during normalization.
func (m *Metrics) AddSkippedEntries(provider string, n int) {
	if n > 0 {
		m.skippedEntries.WithLabelValues(provider).Add(float64(n))
	}
}

// ObserveProviderLatency records how long a live fetch took.
func (m *Metrics) ObserveProviderLatency(provider string, d time.Duration) {
	m.providerLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveHTTPRequest records one served HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.httpDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
}

// MetricsHandler returns a handler for /metrics requests in Prometheus format.
func (m *Metrics) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HealthHandler returns a handler for /healthz requests.
func HealthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health response", "error", err)
		}
	}
}
