package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// TestPrometheusMetrics exercises the metric routing through one shared
// instance; the constructor registers in the default registry and panics
// on duplicates, so it runs exactly once.
func TestPrometheusMetrics(t *testing.T) {
	pm := NewPrometheusMetrics()

	t.Run("dashboard counters keep the operation label", func(t *testing.T) {
		pm.RecordCounter("dashboard_operations_total", 1,
			map[string]string{"operation": "student_page", "status": "success"})

		assert.Equal(t, 1.0,
			testutil.ToFloat64(pm.operationCounter.WithLabelValues("student_page", "success")),
			"the operation label should name the dashboard operation")
		assert.Zero(t,
			testutil.ToFloat64(pm.operationCounter.WithLabelValues("dashboard_operations_total", "success")),
			"the metric name must not leak into the operation label")
	})

	t.Run("counters without an operation label fall back to the metric name", func(t *testing.T) {
		pm.RecordCounter("config_reloads_total", 2, nil)

		assert.Equal(t, 2.0,
			testutil.ToFloat64(pm.operationCounter.WithLabelValues("config_reloads_total", "success")),
			"unlabeled counters should key on the metric name")
	})

	t.Run("grader counters route to their dedicated vectors", func(t *testing.T) {
		pm.RecordCounter("grader_requests_total", 1,
			map[string]string{"provider": "openai", "model": "gpt-4o-mini", "status": "success"})
		pm.RecordCounter("grader_tokens_total", 30,
			map[string]string{"provider": "openai", "model": "gpt-4o-mini", "token_type": "input"})

		assert.Equal(t, 1.0,
			testutil.ToFloat64(pm.graderRequests.WithLabelValues("openai", "gpt-4o-mini", "success")),
			"request counter should route by provider, model, and status")
		assert.Equal(t, 30.0,
			testutil.ToFloat64(pm.graderTokens.WithLabelValues("openai", "gpt-4o-mini", "input")),
			"token counter should route by token type")
	})

	t.Run("latency observations land in the operation histogram", func(t *testing.T) {
		pm.RecordLatency("report_view", 150*time.Millisecond, nil)

		assert.Equal(t, 1, testutil.CollectAndCount(pm.operationLatency),
			"one operation latency series should exist")
	})

	t.Run("similarity observations land in the ocr histogram", func(t *testing.T) {
		pm.RecordHistogram("ocr_similarity", 0.7, map[string]string{"grade": "5"})

		assert.Equal(t, 1, testutil.CollectAndCount(pm.ocrSimilarity),
			"ocr similarity should have its own histogram")
	})

	t.Run("gauges set system state", func(t *testing.T) {
		pm.RecordGauge("active_watchers", 3, nil)

		assert.Equal(t, 3.0,
			testutil.ToFloat64(pm.systemGauges.WithLabelValues("active_watchers")),
			"gauge should hold the last set value")
	})
}
