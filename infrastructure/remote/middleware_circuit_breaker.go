package remote

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen indicates that the circuit breaker rejected a request
// before it reached the provider.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitState represents the current state of a circuit breaker.
type CircuitState int

const (
	// StateClosed passes all requests through normally.
	StateClosed CircuitState = iota

	// StateOpen rejects all requests immediately after too many
	// consecutive failures, preventing cascading load on a struggling
	// provider.
	StateOpen

	// StateHalfOpen admits a single probe request after the cooldown
	// to test recovery.
	StateHalfOpen
)

// circuitBreakerGrader implements the circuit breaker pattern around a
// provider.
type circuitBreakerGrader struct {
	next CoreGrader

	mu           sync.Mutex
	state        CircuitState
	failureCount int
	maxFailures  int
	cooldown     time.Duration
	lastFailure  time.Time
}

// CircuitBreakerMiddleware creates middleware that opens after
// maxFailures consecutive errors and stays open for cooldown before
// probing recovery.
func CircuitBreakerMiddleware(maxFailures int, cooldown time.Duration) Middleware {
	return func(next CoreGrader) CoreGrader {
		return &circuitBreakerGrader{
			next:        next,
			state:       StateClosed,
			maxFailures: maxFailures,
			cooldown:    cooldown,
		}
	}
}

// DoRequest executes the request through the circuit breaker, returning
// ErrCircuitOpen immediately while the circuit is open.
func (cb *circuitBreakerGrader) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	if err := cb.admit(); err != nil {
		return "", 0, 0, err
	}

	response, tokensIn, tokensOut, err := cb.next.DoRequest(ctx, prompt, opts)
	cb.record(err)
	return response, tokensIn, tokensOut, err
}

// admit decides whether a request may proceed and performs the
// open-to-half-open transition once the cooldown has elapsed.
func (cb *circuitBreakerGrader) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.lastFailure) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
	}
	return nil
}

// record updates circuit state from the outcome of one request.
// Any failure while half-open reopens the circuit immediately.
func (cb *circuitBreakerGrader) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failureCount++
		cb.lastFailure = time.Now()
		if cb.state == StateHalfOpen || cb.failureCount >= cb.maxFailures {
			cb.state = StateOpen
		}
		return
	}

	cb.failureCount = 0
	cb.state = StateClosed
}

// State returns the current circuit state, for monitoring and tests.
func (cb *circuitBreakerGrader) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetModel returns the model name from the wrapped implementation.
func (cb *circuitBreakerGrader) GetModel() string { return cb.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (cb *circuitBreakerGrader) SetModel(m string) { cb.next.SetModel(m) }
