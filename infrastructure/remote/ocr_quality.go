package remote

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"

	"github.com/chamikara/rachana/internal/domain"
	"github.com/chamikara/rachana/internal/ports"
)

// Compile-time verification that OCRQualityEstimator implements the port.
var _ ports.OCRQualityEstimator = (*OCRQualityEstimator)(nil)

var (
	validate = validator.New()

	// foldCaser is a package-level Unicode case folder, shared because
	// building a caser per comparison is wasteful.
	foldCaser = cases.Fold()
)

// MaxOCRTextLength bounds the texts accepted for quality estimation.
// Recognized essays are short; anything larger indicates a pipeline bug.
const MaxOCRTextLength = 1 << 20

// OCRQualityEstimator scores how closely OCR output matches a reference
// transcription, using normalized Levenshtein distance over runes. It is
// deterministic, stateless, and safe for concurrent use.
//
// The dashboard uses it to spot-check the recognition service: a teacher
// transcribes a handful of uploaded essays by hand, and the estimator
// reports per-essay accuracy against those transcriptions.
type OCRQualityEstimator struct {
	config OCRQualityConfig
	tracer trace.Tracer
}

// OCRQualityConfig defines the parameters for OCR quality estimation.
type OCRQualityConfig struct {
	// Threshold is the minimum similarity (0.0-1.0) for recognized text
	// to count as acceptable.
	Threshold float64 `yaml:"threshold" json:"threshold" validate:"min=0.0,max=1.0"`

	// CaseSensitive controls whether comparison distinguishes case.
	// Sinhala script has no case, but mixed-script essays with Latin
	// fragments benefit from folding.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`
}

// DefaultOCRQualityConfig returns an OCRQualityConfig with sensible
// defaults.
func DefaultOCRQualityConfig() OCRQualityConfig {
	return OCRQualityConfig{
		Threshold:     0.8,
		CaseSensitive: false,
	}
}

// NewOCRQualityEstimator creates an estimator with the given
// configuration. Returns an error if configuration validation fails.
func NewOCRQualityEstimator(config OCRQualityConfig) (*OCRQualityEstimator, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &OCRQualityEstimator{
		config: config,
		tracer: otel.Tracer("ocr-quality-estimator"),
	}, nil
}

// Estimate compares recognized text against a reference transcription and
// returns the similarity report.
func (e *OCRQualityEstimator) Estimate(ctx context.Context, recognized, reference string) (domain.OCRQualityReport, error) {
	_, span := e.tracer.Start(ctx, "OCRQualityEstimator.Estimate",
		trace.WithAttributes(
			attribute.Float64("config.threshold", e.config.Threshold),
			attribute.Bool("config.case_sensitive", e.config.CaseSensitive),
		),
	)
	defer span.End()

	if len(recognized) > MaxOCRTextLength {
		err := fmt.Errorf("recognized text too long: %d bytes exceeds limit of %d", len(recognized), MaxOCRTextLength)
		span.RecordError(err)
		return domain.OCRQualityReport{}, err
	}
	if len(reference) > MaxOCRTextLength {
		err := fmt.Errorf("reference text too long: %d bytes exceeds limit of %d", len(reference), MaxOCRTextLength)
		span.RecordError(err)
		return domain.OCRQualityReport{}, err
	}

	similarity := e.calculateSimilarity(e.prepareString(recognized), e.prepareString(reference))

	report := domain.OCRQualityReport{
		Similarity: similarity,
		Acceptable: similarity >= e.config.Threshold,
	}

	span.SetAttributes(
		attribute.Float64("ocr.similarity", report.Similarity),
		attribute.Bool("ocr.acceptable", report.Acceptable),
	)

	return report, nil
}

// prepareString normalizes a string according to the configuration.
func (e *OCRQualityEstimator) prepareString(s string) string {
	if !e.config.CaseSensitive {
		return foldCaser.String(s)
	}
	return s
}

// calculateSimilarity computes 1 - distance/maxRuneLen, clamped to
// [0, 1]. The Levenshtein distance operates on runes, so normalization
// uses rune counts; Sinhala characters are multi-byte in UTF-8 and byte
// lengths would skew the score.
func (e *OCRQualityEstimator) calculateSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(s1, s2)

	maxLen := utf8.RuneCountInString(s1)
	if n := utf8.RuneCountInString(s2); n > maxLen {
		maxLen = n
	}

	// Both empty means identical, though the s1 == s2 check already
	// covers it.
	if maxLen == 0 {
		return 1.0
	}

	similarity := 1.0 - float64(distance)/float64(maxLen)
	if similarity < 0 {
		similarity = 0
	}
	return similarity
}
