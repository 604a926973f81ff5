// Package remote implements clients for the hosted services the grading
// workflow depends on: essay scoring and feedback generation backed by LLM
// providers, plus OCR quality estimation for recognized Sinhala text.
//
// The services are consumed as opaque request/response contracts. Provider
// specifics (OpenAI, Anthropic, Google) sit behind the CoreGrader interface,
// and cross-cutting concerns — retries, timeouts, rate limiting, circuit
// breaking, metrics, tracing — compose through a middleware chain, so
// application code never changes when a provider or policy does.
//
// Basic usage:
//
//	client, err := remote.NewClient("openai", remote.ClientConfig{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  "gpt-4o-mini",
//	})
//	eval, err := client.Grade(ctx, essayText, nil)
//
// Usage with middleware:
//
//	client, err := remote.NewClient("anthropic", remote.ClientConfig{
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	    Middleware: []remote.Middleware{
//	        remote.RateLimitMiddleware(10, 20),
//	        remote.RetryMiddleware(3, 200*time.Millisecond, 5*time.Second),
//	        remote.MetricsMiddleware(collector),
//	    },
//	})
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chamikara/rachana/internal/domain"
	"github.com/chamikara/rachana/internal/ports"
)

// CoreGrader is the minimal interface a provider must implement.
// It abstracts the raw completion call so the middleware chain can wrap any
// conforming implementation.
type CoreGrader interface {
	// DoRequest sends a prompt to the provider and returns the raw response
	// text along with input and output token counts.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel updates the model used for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreGrader to add cross-cutting functionality.
type Middleware func(CoreGrader) CoreGrader

// ClientConfig holds all configuration for creating a grading client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model selects the provider model. Empty means the provider default.
	Model string

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string

	// Timeout bounds individual requests. Zero means no client-side bound.
	Timeout time.Duration

	// Rubric overrides the default grading rubric embedded in the prompt.
	Rubric string

	// Middleware is applied in the order given; the first entry is the
	// outermost wrapper.
	Middleware []Middleware
}

// Client implements ports.GraderClient on top of a middleware-wrapped
// provider. It owns prompt construction and response parsing so the rest of
// the system only ever sees domain.EssayEvaluation values.
type Client struct {
	core   CoreGrader
	rubric string
}

var _ ports.GraderClient = (*Client)(nil)

// NewClient assembles the middleware chain around the named provider and
// returns a ready-to-use grading client.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	// Apply middleware in reverse order so the first middleware is the
	// outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	rubric := config.Rubric
	if rubric == "" {
		rubric = defaultRubric
	}

	return &Client{core: core, rubric: rubric}, nil
}

// Grade submits recognized essay text for scoring and feedback generation
// and parses the provider's structured JSON reply.
func (c *Client) Grade(ctx context.Context, essayText string, options map[string]any) (domain.EssayEvaluation, error) {
	if strings.TrimSpace(essayText) == "" {
		return domain.EssayEvaluation{}, ErrEmptyEssay
	}

	prompt := buildGradingPrompt(c.rubric, essayText)

	response, _, _, err := c.core.DoRequest(ctx, prompt, options)
	if err != nil {
		return domain.EssayEvaluation{}, err
	}

	return parseEvaluation(response)
}

// EstimateTokens returns an approximate token count for the given text
// using a character-based heuristic of roughly four characters per token.
func (c *Client) EstimateTokens(text string) (int, error) {
	return estimateTokens(text), nil
}

// GetModel returns the model name from the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }

// estimateTokens is the shared fallback used when a provider response
// carries no usage metadata.
func estimateTokens(text string) int { return (len(text) + 3) / 4 }

// defaultRubric is the grading instruction embedded in every scoring
// prompt. The scale matches the dashboard's 0-100 display.
const defaultRubric = `Grade the following Sinhala essay on a 0-100 scale, ` +
	`weighing content and structure, grammar and spelling, and vocabulary richness. ` +
	`Write the feedback in simple Sinhala suitable for a school student.`

// buildGradingPrompt combines the rubric with the essay text and pins the
// response to the JSON shape parseEvaluation expects.
func buildGradingPrompt(rubric, essayText string) string {
	var b strings.Builder
	b.WriteString(rubric)
	b.WriteString("\n\nRespond with a single JSON object and nothing else: ")
	b.WriteString(`{"score": <number>, "feedback": "<text>", "corrected_text": "<text>"}`)
	b.WriteString("\n\nEssay:\n")
	b.WriteString(essayText)
	return b.String()
}

// parseEvaluation extracts the evaluation object from a provider reply.
// Models often wrap JSON in prose or code fences, so parsing tolerates
// surrounding text by slicing from the first '{' to the last '}'.
func parseEvaluation(response string) (domain.EssayEvaluation, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end <= start {
		return domain.EssayEvaluation{}, fmt.Errorf("%w: %.80q", ErrMalformedEvaluation, response)
	}

	var eval domain.EssayEvaluation
	if err := json.Unmarshal([]byte(response[start:end+1]), &eval); err != nil {
		return domain.EssayEvaluation{}, fmt.Errorf("%w: %v", ErrMalformedEvaluation, err)
	}

	if eval.Score < 0 || eval.Score > 100 {
		return domain.EssayEvaluation{}, fmt.Errorf("%w: score %.2f outside 0-100", ErrMalformedEvaluation, eval.Score)
	}

	return eval, nil
}

// ProviderFactory creates a CoreGrader implementation from configuration.
type ProviderFactory func(ClientConfig) (CoreGrader, error)

// Provider factory registry for extensibility. Providers register
// themselves in init so callers select them by name.
var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a custom provider factory under the
// given name.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
