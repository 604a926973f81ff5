package remote

import (
	"context"
	"time"
)

// timeoutGrader bounds each request so a hung provider call cannot stall
// an upload-processing pipeline indefinitely.
type timeoutGrader struct {
	next    CoreGrader
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that enforces a per-request
// timeout on top of whatever deadline the caller's context carries.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next CoreGrader) CoreGrader {
		return &timeoutGrader{next: next, timeout: timeout}
	}
}

// DoRequest executes the request with a timeout context.
func (t *timeoutGrader) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.DoRequest(ctx, prompt, opts)
}

// GetModel returns the model name from the wrapped implementation.
func (t *timeoutGrader) GetModel() string { return t.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (t *timeoutGrader) SetModel(m string) { t.next.SetModel(m) }
