// Package metrics provides Prometheus-backed implementations of the
// observability ports.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chamikara/rachana/internal/ports"
)

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It covers the dashboard's operational surface: grading
// request traffic, token spend, aggregation latency, and score
// distributions.
type PrometheusMetrics struct {
	graderRequests   *prometheus.CounterVec
	graderTokens     *prometheus.CounterVec
	graderLatency    *prometheus.HistogramVec
	operationLatency *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
	scoreHistogram   *prometheus.HistogramVec
	ocrSimilarity    *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// all metrics in the global Prometheus registry. Call it once per
// process; duplicate registration panics.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		// Grading-service traffic metrics.
		graderRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grader_requests_total",
				Help: "Total number of grading requests by provider, model, and outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		graderTokens: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grader_tokens_total",
				Help: "Total tokens consumed by grading requests.",
			},
			[]string{"provider", "model", "token_type"},
		),
		graderLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "grader_latency_seconds",
				Help:    "Latency of grading requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model", "status"},
		),

		// Aggregation and reporting metrics.
		operationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_operation_duration_seconds",
				Help:    "Execution time of dashboard operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_operations_total",
				Help: "Total number of dashboard operations performed.",
			},
			[]string{"operation", "status"},
		),
		systemGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dashboard_system_state",
				Help: "Current system state values for the dashboard.",
			},
			[]string{"metric"},
		),
		scoreHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "essay_score_distribution",
				Help:    "Distribution of essay scores on the 0-100 scale.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"grade"},
		),
		ocrSimilarity: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ocr_similarity",
				Help:    "Similarity of recognized text to the corrected essay, in [0, 1].",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"grade"},
		),
	}
}

// RecordLatency records execution time of a dashboard operation.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter increments the counter matching the metric name, routing
// grading-service counters to their dedicated vectors.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "grader_requests_total":
		pm.graderRequests.WithLabelValues(
			labels["provider"],
			labels["model"],
			labels["status"],
		).Add(value)
	case "grader_tokens_total":
		pm.graderTokens.WithLabelValues(
			labels["provider"],
			labels["model"],
			labels["token_type"],
		).Add(value)
	default:
		operation, ok := labels["operation"]
		if !ok {
			operation = metric
		}
		status, ok := labels["status"]
		if !ok {
			status = "success"
		}
		pm.operationCounter.WithLabelValues(operation, status).Add(value)
	}
}

// RecordGauge sets the named system-state gauge.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram records a value in the histogram matching the metric
// name.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "grader_latency_seconds":
		pm.graderLatency.WithLabelValues(
			labels["provider"],
			labels["model"],
			labels["status"],
		).Observe(value)
	case "essay_score_distribution":
		pm.scoreHistogram.WithLabelValues(labels["grade"]).Observe(value)
	case "ocr_similarity":
		pm.ocrSimilarity.WithLabelValues(labels["grade"]).Observe(value)
	default:
		pm.operationLatency.WithLabelValues(metric).Observe(value)
	}
}
