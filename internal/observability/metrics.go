package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	reportsBuilt    *prometheus.CounterVec
	reportDuration  *prometheus.HistogramVec
	reportCache     *prometheus.CounterVec
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meridian_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	reports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_reports_built_total",
		Help: "Sales reports assembled by kind.",
	}, []string{"kind"})
	reportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meridian_report_build_duration_seconds",
		Help:    "Report assembly duration by kind.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"kind"})
	reportCache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_report_cache_total",
		Help: "Report cache lookups by kind and outcome.",
	}, []string{"kind", "outcome"})
	registry.MustRegister(requests, duration, reports, reportDuration, reportCache)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		reportsBuilt:    reports,
		reportDuration:  reportDuration,
		reportCache:     reportCache,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ReportBuilt records one completed report assembly.
func (m *Metrics) ReportBuilt(kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reportsBuilt.WithLabelValues(kind).Inc()
	m.reportDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ReportCacheHit records a result-cache hit.
func (m *Metrics) ReportCacheHit(kind string) {
	if m == nil {
		return
	}
	m.reportCache.WithLabelValues(kind, "hit").Inc()
}

// ReportCacheMiss records a result-cache miss.
func (m *Metrics) ReportCacheMiss(kind string) {
	if m == nil {
		return
	}
	m.reportCache.WithLabelValues(kind, "miss").Inc()
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
