package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface,
// the overview cache and the recalculation pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	recalcDuration  *prometheus.HistogramVec
	recalcTotal     *prometheus.CounterVec
	queueRetries    *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "overview_cache_latency_seconds",
		Help:    "Latency for overview cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overview_cache_hits_total",
		Help: "Total overview cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overview_cache_misses_total",
		Help: "Total overview cache misses",
	})

	recalcDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grade_recalc_duration_seconds",
		Help:    "Duration of grade recomputation per hierarchy level",
		Buckets: prometheus.DefBuckets,
	}, []string{"level"})

	recalcTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grade_recalc_total",
		Help: "Total grade recomputations per hierarchy level",
	}, []string{"level"})

	queueRetries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recalc_queue_retries_total",
		Help: "Total recalculation jobs scheduled for redelivery",
	}, []string{"type"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHits, cacheMisses, recalcDuration, recalcTotal, queueRetries, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		recalcDuration:  recalcDuration,
		recalcTotal:     recalcTotal,
		queueRetries:    queueRetries,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordCacheLookup records one overview cache lookup.
func (s *MetricsService) RecordCacheLookup(hit bool, duration time.Duration) {
	s.cacheLatency.Observe(duration.Seconds())
	if hit {
		s.cacheHits.Inc()
	} else {
		s.cacheMisses.Inc()
	}
}

// ObserveRecalc records one recomputation stage.
func (s *MetricsService) ObserveRecalc(level string, duration time.Duration) {
	s.recalcDuration.WithLabelValues(level).Observe(duration.Seconds())
	s.recalcTotal.WithLabelValues(level).Inc()
}

// RecordQueueRetry counts a redelivered recalculation job.
func (s *MetricsService) RecordQueueRetry(jobType string) {
	s.queueRetries.WithLabelValues(jobType).Inc()
}
