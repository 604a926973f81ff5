package remote

import (
	"fmt"
	"net/url"
	"sync"
	"time"
)

// Parameter bounds shared across providers.
const (
	// DefaultMaxTokens caps generation length when the caller does not
	// specify one. Feedback plus corrected text fits comfortably.
	DefaultMaxTokens = 2048
	// MinTemperature and MaxTemperature bound the sampling temperature.
	// The maximum is 2.0 to accommodate Gemini.
	MinTemperature = 0.0
	MaxTemperature = 2.0
	// MinTopP and MaxTopP bound nucleus sampling.
	MinTopP = 0.0
	MaxTopP = 1.0
	// MinTimeout and MaxTimeout bound the per-request timeout.
	MinTimeout = 1 * time.Second
	MaxTimeout = 10 * time.Minute
)

// BaseProvider provides common, thread-safe model-name handling for all
// providers.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the currently configured model name.
// Safe for concurrent use.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name. Safe for concurrent use.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the standardized set of request parameters shared by
// all providers. Provider-specific extras land in Extra.
type RequestOptions struct {
	// MaxTokens caps the number of generated tokens.
	MaxTokens int
	// Model identifies the model to use for this request.
	Model string
	// Temperature controls output randomness; nil means provider default.
	Temperature *float64
	// TopP enables nucleus sampling; nil means provider default.
	TopP *float64
	// System carries instructions that frame the grading conversation.
	System string
	// Extra holds provider-specific options outside the standard set.
	Extra map[string]any
}

// ParseRequestOptions extracts standardized request parameters from an
// options map, applying defaults for missing or invalid entries and
// collecting unrecognized keys into Extra.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: extractInt(opts, "max_tokens", DefaultMaxTokens, func(v int) bool { return v > 0 }),
		Model:     extractString(opts, "model", defaultModel),
		System:    extractString(opts, "system", ""),
		Extra:     make(map[string]any),
	}

	if temp, ok := extractFloat64(opts, "temperature", isValidTemperature); ok {
		options.Temperature = &temp
	}
	if topP, ok := extractFloat64(opts, "top_p", isValidTopP); ok {
		options.TopP = &topP
	}

	for k, v := range opts {
		switch k {
		case "max_tokens", "model", "system", "temperature", "top_p":
			// Standard options already processed.
		default:
			options.Extra[k] = v
		}
	}

	return options
}

func isValidTemperature(v float64) bool { return v >= MinTemperature && v <= MaxTemperature }

func isValidTopP(v float64) bool { return v >= MinTopP && v <= MaxTopP }

func extractInt(opts map[string]any, key string, fallback int, valid func(int) bool) int {
	if raw, ok := opts[key]; ok {
		switch v := raw.(type) {
		case int:
			if valid == nil || valid(v) {
				return v
			}
		case float64:
			if n := int(v); float64(n) == v && (valid == nil || valid(n)) {
				return n
			}
		}
	}
	return fallback
}

func extractString(opts map[string]any, key, fallback string) string {
	if v, ok := opts[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func extractFloat64(opts map[string]any, key string, valid func(float64) bool) (float64, bool) {
	if raw, ok := opts[key]; ok {
		switch v := raw.(type) {
		case float64:
			if valid == nil || valid(v) {
				return v, true
			}
		case int:
			f := float64(v)
			if valid == nil || valid(f) {
				return f, true
			}
		}
	}
	return 0, false
}

// clamp bounds v to the inclusive range [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampInt bounds v to the inclusive range [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ValidateBaseURL validates and normalizes a base URL override.
// An empty string is valid and selects the provider default.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got: %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}

	return parsed.String(), nil
}

// ValidateTimeout clamps a timeout to [MinTimeout, MaxTimeout].
// Zero or negative means the system default should be used.
func ValidateTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	if timeout < MinTimeout {
		return MinTimeout
	}
	if timeout > MaxTimeout {
		return MaxTimeout
	}
	return timeout
}
