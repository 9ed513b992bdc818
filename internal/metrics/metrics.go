// Package metrics exposes Prometheus counters for the HTTP API, the
// response cache and the rating ingestion run.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hainu/catalog/internal/apperror"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds every collector registered by the catalog backend.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	cacheRequestsTotal *prometheus.CounterVec
	cacheFlushesTotal  prometheus.Counter

	ingestServicesTotal *prometheus.CounterVec
	ingestReviewsTotal  *prometheus.CounterVec
}

// New creates a registry with Go runtime collectors and registers the
// catalog metrics on it.
func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	return NewWithRegistry(registry)
}

// NewWithRegistry registers the catalog metrics on registry.
func NewWithRegistry(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_requests_total",
			Help: "Total number of response cache lookups",
		},
		[]string{"result"}, // hit, miss, error
	)

	m.cacheFlushesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_cache_flushes_total",
			Help: "Total number of response cache flushes",
		},
	)

	m.ingestServicesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_ingest_services_total",
			Help: "Services processed by the rating ingestion run",
		},
		[]string{"status"}, // synced, skipped, failed
	)

	m.ingestReviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_ingest_reviews_total",
			Help: "Reviews processed by the rating ingestion run",
		},
		[]string{"result"}, // stored, skipped
	)
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.httpRequestsTotal.Describe(ch)
	m.httpRequestDuration.Describe(ch)
	m.cacheRequestsTotal.Describe(ch)
	m.cacheFlushesTotal.Describe(ch)
	m.ingestServicesTotal.Describe(ch)
	m.ingestReviewsTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.httpRequestsTotal.Collect(ch)
	m.httpRequestDuration.Collect(ch)
	m.cacheRequestsTotal.Collect(ch)
	m.cacheFlushesTotal.Collect(ch)
	m.ingestServicesTotal.Collect(ch)
	m.ingestReviewsTotal.Collect(ch)
}

// RecordCacheLookup counts one cache lookup. A nil receiver is a no-op so
// callers can run without metrics in tests and CLI commands.
func (m *Metrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordCacheFlush counts one cache flush.
func (m *Metrics) RecordCacheFlush() {
	if m == nil {
		return
	}
	m.cacheFlushesTotal.Inc()
}

// RecordIngestService counts one processed service by outcome.
func (m *Metrics) RecordIngestService(status string) {
	if m == nil {
		return
	}
	m.ingestServicesTotal.WithLabelValues(status).Inc()
}

// RecordIngestReviews adds n reviews with the given result.
func (m *Metrics) RecordIngestReviews(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ingestReviewsTotal.WithLabelValues(result).Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = apperror.SafeCode(err)
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
