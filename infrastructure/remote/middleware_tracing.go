package remote

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracedGrader wraps each request in an OpenTelemetry span so grading
// calls show up in distributed traces alongside the rest of the request
// path.
type tracedGrader struct {
	next        CoreGrader
	serviceName string
	tracer      trace.Tracer
}

// TracingMiddleware creates middleware that records each grading request
// as a span using the globally registered tracer provider.
func TracingMiddleware(serviceName string) Middleware {
	return func(next CoreGrader) CoreGrader {
		return &tracedGrader{
			next:        next,
			serviceName: serviceName,
			tracer:      otel.Tracer("grader-client"),
		}
	}
}

// DoRequest executes the request within a span carrying model, prompt
// size, and token-usage attributes.
func (t *tracedGrader) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	ctx, span := t.tracer.Start(ctx, "grader.request",
		trace.WithAttributes(
			attribute.String("service.name", t.serviceName),
			attribute.String("grader.model", t.next.GetModel()),
			attribute.Int("grader.prompt.length", len(prompt)),
		),
	)
	defer span.End()

	response, tokensIn, tokensOut, err := t.next.DoRequest(ctx, prompt, opts)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.Int("grader.tokens.input", tokensIn),
			attribute.Int("grader.tokens.output", tokensOut),
		)
		span.SetStatus(codes.Ok, "")
	}

	return response, tokensIn, tokensOut, err
}

// GetModel returns the model name from the wrapped implementation.
func (t *tracedGrader) GetModel() string { return t.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (t *tracedGrader) SetModel(m string) { t.next.SetModel(m) }
