package ports

import (
	"context"
	"time"
)

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus, OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like aggregation runs, skipped
	// records, errors, etc.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like scores or group sizes.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// ConfigLoader defines the interface for loading configuration.
// Implementations could read from files, environment variables,
// or a combination of sources.
type ConfigLoader interface {
	// Load reads configuration from the underlying source into the
	// provided struct pointer.
	Load(ctx context.Context, config any) error

	// Watch monitors configuration changes and calls the callback with the
	// freshly loaded configuration when the source changes. It returns a
	// function that stops watching when called.
	Watch(ctx context.Context, config any, callback func(any)) (stop func(), err error)
}
