package remote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCollector captures metric calls for assertions.
type recordingCollector struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string][]float64
	lastLabels map[string]string
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		counters:   make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

func (r *recordingCollector) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
}

func (r *recordingCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := metric
	if tt, ok := labels["token_type"]; ok {
		key += ":" + tt
	}
	r.counters[key] += value
	r.lastLabels = cloneLabels(labels)
}

func (r *recordingCollector) RecordGauge(metric string, value float64, labels map[string]string) {}

func (r *recordingCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms[metric] = append(r.histograms[metric], value)
	r.lastLabels = cloneLabels(labels)
}

func cloneLabels(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

// TestMetricsMiddleware_RecordsSuccess verifies latency, request, and
// token metrics on a successful request.
func TestMetricsMiddleware_RecordsSuccess(t *testing.T) {
	mock := NewMockCoreGrader()
	mock.Model = "gpt-4o-mini"
	collector := newRecordingCollector()
	wrapped := MetricsMiddleware(collector)(mock)

	_, _, _, err := wrapped.DoRequest(context.Background(), "test prompt", nil)
	require.NoError(t, err, "request should succeed")

	assert.Equal(t, 1.0, collector.counters["grader_requests_total"], "request counter should increment")
	assert.Equal(t, 10.0, collector.counters["grader_tokens_total:input"], "input tokens should be counted")
	assert.Equal(t, 20.0, collector.counters["grader_tokens_total:output"], "output tokens should be counted")
	assert.Len(t, collector.histograms["grader_latency_seconds"], 1, "latency should be observed")
	assert.Equal(t, "openai", collector.lastLabels["provider"], "provider should be inferred from the model name")
}

// TestMetricsMiddleware_RecordsFailureStatus verifies status labeling on
// errors and that token counters are skipped.
func TestMetricsMiddleware_RecordsFailureStatus(t *testing.T) {
	mock := NewMockCoreGrader()
	mock.Error = errors.New("service error")
	collector := newRecordingCollector()
	wrapped := MetricsMiddleware(collector)(mock)

	_, _, _, err := wrapped.DoRequest(context.Background(), "test prompt", nil)
	require.Error(t, err, "request should fail")

	assert.Equal(t, 1.0, collector.counters["grader_requests_total"], "failed requests still count")
	assert.Zero(t, collector.counters["grader_tokens_total:input"], "no tokens should be counted on failure")
	assert.Equal(t, "error", collector.lastLabels["status"], "status should be error")
}

// TestMetricsMiddleware_LabelsCircuitOpen verifies the dedicated
// circuit-open status.
func TestMetricsMiddleware_LabelsCircuitOpen(t *testing.T) {
	mock := NewMockCoreGrader()
	mock.Error = ErrCircuitOpen
	collector := newRecordingCollector()
	wrapped := MetricsMiddleware(collector)(mock)

	_, _, _, err := wrapped.DoRequest(context.Background(), "test prompt", nil)
	require.Error(t, err, "request should fail")

	assert.Equal(t, "circuit_open", collector.lastLabels["status"], "status should identify the open circuit")
}

// TestMetricsMiddleware_NilCollector verifies that a missing collector
// disables collection without breaking the chain.
func TestMetricsMiddleware_NilCollector(t *testing.T) {
	mock := NewMockCoreGrader()
	wrapped := MetricsMiddleware(nil)(mock)

	response, _, _, err := wrapped.DoRequest(context.Background(), "test prompt", nil)

	require.NoError(t, err, "request should succeed")
	assert.Equal(t, mock.Response, response, "response should pass through")
}
