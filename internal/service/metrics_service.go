package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry. Besides the usual HTTP and
// cache instrumentation it counts the domain's gated writes, conflicts
// included, since rejected duplicates are the interesting signal here.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	voteCasts       *prometheus.CounterVec
	visitRequests   *prometheus.CounterVec
	undertakings    *prometheus.CounterVec
}

// Outcome labels for the gated-write counters.
const (
	MetricOutcomeAccepted = "accepted"
	MetricOutcomeConflict = "conflict"
	MetricOutcomeRejected = "rejected"
)

// NewMetricsService registers the collectors on a fresh registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	voteCasts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vote_casts_total",
		Help: "Vote cast attempts by outcome",
	}, []string{"outcome"})

	visitRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "visit_request_submissions_total",
		Help: "Visit request submissions by outcome",
	}, []string{"outcome"})

	undertakings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "undertaking_submissions_total",
		Help: "Undertaking submissions by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses,
		voteCasts, visitRequests, undertakings, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		voteCasts:       voteCasts,
		visitRequests:   visitRequests,
		undertakings:    undertakings,
	}
}

// RegisterDBStats exposes connection pool gauges for the primary database.
func (m *MetricsService) RegisterDBStats(db *sqlx.DB) {
	if m == nil || db == nil {
		return
	}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Open connections in the database pool",
		}, func() float64 { return float64(db.Stats().OpenConnections) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "db_connections_in_use",
			Help: "Connections currently in use",
		}, func() float64 { return float64(db.Stats().InUse) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "db_connections_wait_seconds_total",
			Help: "Cumulative time spent waiting for a connection",
		}, func() float64 { return db.Stats().WaitDuration.Seconds() }),
	)
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records per-route request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// CountVoteCast tallies a vote attempt.
func (m *MetricsService) CountVoteCast(outcome string) {
	if m == nil {
		return
	}
	m.voteCasts.WithLabelValues(outcome).Inc()
}

// CountVisitRequest tallies a visit request submission.
func (m *MetricsService) CountVisitRequest(outcome string) {
	if m == nil {
		return
	}
	m.visitRequests.WithLabelValues(outcome).Inc()
}

// CountUndertaking tallies an undertaking submission.
func (m *MetricsService) CountUndertaking(outcome string) {
	if m == nil {
		return
	}
	m.undertakings.WithLabelValues(outcome).Inc()
}
