package remote

import (
	"context"
	"sync"
	"time"
)

// MockCoreGrader is a configurable CoreGrader implementation for testing
// the middleware chain. It records every call and can be scripted to
// fail, delay, or alternate outcomes.
type MockCoreGrader struct {
	mu sync.Mutex

	// Response configuration
	Response      string
	TokensIn      int
	TokensOut     int
	Error         error
	Model         string
	ResponseDelay time.Duration

	// Behavior flags
	FailUntilAttempt int  // Fail for first N attempts, then succeed
	AlternateErrors  bool // Alternate between success and failure

	// Tracking
	CallCount      int
	LastPrompt     string
	LastOpts       map[string]any
	LastContext    context.Context
	CallTimestamps []time.Time
}

// NewMockCoreGrader creates a mock with default successful behavior.
func NewMockCoreGrader() *MockCoreGrader {
	return &MockCoreGrader{
		Response:       `{"score": 72.5, "feedback": "good", "corrected_text": "text"}`,
		TokensIn:       10,
		TokensOut:      20,
		Model:          "test-model",
		CallTimestamps: make([]time.Time, 0),
	}
}

// DoRequest implements CoreGrader with the configured behavior.
func (m *MockCoreGrader) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastPrompt = prompt
	m.LastOpts = opts
	m.LastContext = ctx
	m.CallTimestamps = append(m.CallTimestamps, time.Now())

	if m.ResponseDelay > 0 {
		select {
		case <-time.After(m.ResponseDelay):
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		}
	}

	if m.FailUntilAttempt > 0 {
		if m.CallCount <= m.FailUntilAttempt {
			if m.Error != nil {
				return "", 0, 0, m.Error
			}
			return "", 0, 0, &mockError{message: "simulated failure"}
		}
		return m.Response, m.TokensIn, m.TokensOut, nil
	}

	if m.AlternateErrors && m.CallCount%2 == 0 {
		return "", 0, 0, &mockError{message: "alternating failure"}
	}

	if m.Error != nil {
		return "", 0, 0, m.Error
	}

	return m.Response, m.TokensIn, m.TokensOut, nil
}

// GetModel returns the configured model name.
func (m *MockCoreGrader) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Model
}

// SetModel updates the model name.
func (m *MockCoreGrader) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Model = model
}

// GetCallCount returns the number of DoRequest calls so far.
func (m *MockCoreGrader) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// mockError is a simple error type for scripted failures.
type mockError struct {
	message string
}

func (e *mockError) Error() string { return e.message }
