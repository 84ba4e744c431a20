package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the quarantine
// API: HTTP request metrics plus merge and validation outcome counters.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	recordsMerged   prometheus.Counter
	recordsFailed   prometheus.Counter
	pipelineRuns    prometheus.Counter
	invalidUpdates  prometheus.Counter
}

// NewMetricsService registers the collectors.
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

	recordsMerged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quarantine_records_merged_total",
		Help: "Records successfully merged into the clean table",
	})

	recordsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quarantine_records_failed_total",
		Help: "Records that failed during merge",
	})

	pipelineRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quarantine_pipeline_triggers_total",
		Help: "Pipeline runs triggered after merge batches",
	})

	invalidUpdates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quarantine_invalid_updates_total",
		Help: "Updates rejected by constraint validation",
	})

	registry.MustRegister(requestDuration, requestTotal, recordsMerged, recordsFailed, pipelineRuns, invalidUpdates)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		recordsMerged:   recordsMerged,
		recordsFailed:   recordsFailed,
		pipelineRuns:    pipelineRuns,
		invalidUpdates:  invalidUpdates,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records request metrics.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveMergeBatch records the outcome of one merge batch.
func (s *MetricsService) ObserveMergeBatch(merged, failed int, pipelineTriggered bool) {
	s.recordsMerged.Add(float64(merged))
	s.recordsFailed.Add(float64(failed))
	if pipelineTriggered {
		s.pipelineRuns.Inc()
	}
}

// RecordInvalidUpdates counts updates rejected by validation.
func (s *MetricsService) RecordInvalidUpdates(count int) {
	if count > 0 {
		s.invalidUpdates.Add(float64(count))
	}
}
