package remote

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chamikara/rachana/internal/ports"
)

// metricsGrader collects per-request metrics for operational monitoring:
// latency, request counts by status, and token usage.
type metricsGrader struct {
	next      CoreGrader
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that records grading-request
// metrics through the given collector. A nil collector disables
// collection without changing behavior.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreGrader) CoreGrader {
		return &metricsGrader{
			next:      next,
			collector: collector,
		}
	}
}

// DoRequest executes the request while recording latency, status, and
// token-usage metrics labeled by provider and model.
func (m *metricsGrader) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := m.next.DoRequest(ctx, prompt, opts)

	labels := map[string]string{
		"provider": m.extractProvider(),
		"model":    m.next.GetModel(),
		"status":   "success",
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrCircuitOpen):
			labels["status"] = "circuit_open"
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			labels["status"] = "timeout"
		default:
			labels["status"] = "error"
		}
	}

	if m.collector != nil {
		m.collector.RecordHistogram("grader_latency_seconds", time.Since(start).Seconds(), labels)
		m.collector.RecordCounter("grader_requests_total", 1, labels)

		if err == nil {
			labels["token_type"] = "input"
			m.collector.RecordCounter("grader_tokens_total", float64(tokensIn), labels)

			labels["token_type"] = "output"
			m.collector.RecordCounter("grader_tokens_total", float64(tokensOut), labels)
		}
	}

	return response, tokensIn, tokensOut, err
}

func (m *metricsGrader) extractProvider() string {
	model := m.next.GetModel()
	switch {
	case strings.Contains(model, "gpt"):
		return "openai"
	case strings.Contains(model, "claude"):
		return "anthropic"
	case strings.Contains(model, "gemini"):
		return "google"
	}
	return "unknown"
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsGrader) GetModel() string { return m.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (m *metricsGrader) SetModel(model string) { m.next.SetModel(model) }
