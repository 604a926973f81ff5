package ports

import (
	"context"

	"github.com/chamikara/rachana/internal/domain"
)

// GraderClient defines the interface for the remote essay-grading service.
// The service is consumed as an opaque request/response contract: Sinhala
// essay text in, a structured evaluation out. Implementations handle
// provider-specific details like authentication, request formatting, and
// response parsing.
type GraderClient interface {
	// Grade submits recognized essay text for scoring and feedback
	// generation. The options map allows provider-specific tuning without
	// changing the interface; common options include:
	//   - "temperature": float64
	//   - "max_tokens": int
	//   - "model": string (specific model version)
	Grade(ctx context.Context, essayText string, options map[string]any) (domain.EssayEvaluation, error)

	// EstimateTokens calculates the approximate token count for a given
	// text, for cost estimation and staying within model limits.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier used by this client,
	// for logging and debugging.
	GetModel() string
}

// OCRQualityEstimator scores how faithful recognized text is to a
// reference transcription, so the dashboard can flag uploads where the
// recognition step likely garbled the essay.
type OCRQualityEstimator interface {
	// Estimate compares recognized text against a reference and returns
	// the similarity report.
	Estimate(ctx context.Context, recognized, reference string) (domain.OCRQualityReport, error)
}
