package remote

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOCRQualityEstimator_IdenticalText verifies perfect similarity for
// exact matches.
func TestOCRQualityEstimator_IdenticalText(t *testing.T) {
	estimator, err := NewOCRQualityEstimator(DefaultOCRQualityConfig())
	require.NoError(t, err, "default configuration should be valid")

	report, err := estimator.Estimate(context.Background(), "අපේ ගම", "අපේ ගම")

	require.NoError(t, err, "estimation should succeed")
	assert.Equal(t, 1.0, report.Similarity, "identical text should score 1.0")
	assert.True(t, report.Acceptable, "identical text should be acceptable")
}

// TestOCRQualityEstimator_SinhalaRuneNormalization verifies that
// similarity is normalized over runes, not bytes. Sinhala characters are
// three bytes each in UTF-8, so byte-based normalization would deflate
// every score.
func TestOCRQualityEstimator_SinhalaRuneNormalization(t *testing.T) {
	estimator, err := NewOCRQualityEstimator(OCRQualityConfig{Threshold: 0.5})
	require.NoError(t, err, "configuration should be valid")

	// One substitution in a five-rune string: similarity 1 - 1/5 = 0.8.
	report, err := estimator.Estimate(context.Background(), "අආඉඋඔ", "අආඊඋඔ")

	require.NoError(t, err, "estimation should succeed")
	assert.InDelta(t, 0.8, report.Similarity, 1e-9, "one edit over five runes should score 0.8")
}

// TestOCRQualityEstimator_ThresholdGate verifies the acceptable flag on
// either side of the threshold.
func TestOCRQualityEstimator_ThresholdGate(t *testing.T) {
	estimator, err := NewOCRQualityEstimator(OCRQualityConfig{Threshold: 0.9})
	require.NoError(t, err, "configuration should be valid")

	ctx := context.Background()

	// One edit over ten runes: 0.9, meets the threshold.
	passing, err := estimator.Estimate(ctx, "abcdefghiX", "abcdefghij")
	require.NoError(t, err, "estimation should succeed")
	assert.InDelta(t, 0.9, passing.Similarity, 1e-9, "one edit over ten runes should score 0.9")
	assert.True(t, passing.Acceptable, "similarity at threshold should be acceptable")

	// Two edits over ten runes: 0.8, below the threshold.
	failing, err := estimator.Estimate(ctx, "abcdefghXY", "abcdefghij")
	require.NoError(t, err, "estimation should succeed")
	assert.InDelta(t, 0.8, failing.Similarity, 1e-9, "two edits over ten runes should score 0.8")
	assert.False(t, failing.Acceptable, "similarity below threshold should not be acceptable")
}

// TestOCRQualityEstimator_CaseFolding verifies that Latin fragments fold
// case unless configured otherwise.
func TestOCRQualityEstimator_CaseFolding(t *testing.T) {
	ctx := context.Background()

	insensitive, err := NewOCRQualityEstimator(OCRQualityConfig{Threshold: 0.5, CaseSensitive: false})
	require.NoError(t, err, "configuration should be valid")

	report, err := insensitive.Estimate(ctx, "GRADE FIVE", "grade five")
	require.NoError(t, err, "estimation should succeed")
	assert.Equal(t, 1.0, report.Similarity, "case-insensitive comparison should treat case variants as identical")

	sensitive, err := NewOCRQualityEstimator(OCRQualityConfig{Threshold: 0.5, CaseSensitive: true})
	require.NoError(t, err, "configuration should be valid")

	report, err = sensitive.Estimate(ctx, "GRADE FIVE", "grade five")
	require.NoError(t, err, "estimation should succeed")
	assert.Less(t, report.Similarity, 1.0, "case-sensitive comparison should penalize case differences")
}

// TestOCRQualityEstimator_EmptyStrings verifies the empty-input edge
// cases.
func TestOCRQualityEstimator_EmptyStrings(t *testing.T) {
	estimator, err := NewOCRQualityEstimator(DefaultOCRQualityConfig())
	require.NoError(t, err, "default configuration should be valid")

	ctx := context.Background()

	report, err := estimator.Estimate(ctx, "", "")
	require.NoError(t, err, "estimation should succeed")
	assert.Equal(t, 1.0, report.Similarity, "two empty strings should be identical")

	report, err = estimator.Estimate(ctx, "", "reference")
	require.NoError(t, err, "estimation should succeed")
	assert.Equal(t, 0.0, report.Similarity, "empty recognized text should score zero against non-empty reference")
}

// TestOCRQualityEstimator_RejectsOversizedInput verifies the length
// guard.
func TestOCRQualityEstimator_RejectsOversizedInput(t *testing.T) {
	estimator, err := NewOCRQualityEstimator(DefaultOCRQualityConfig())
	require.NoError(t, err, "default configuration should be valid")

	oversized := strings.Repeat("a", MaxOCRTextLength+1)

	_, err = estimator.Estimate(context.Background(), oversized, "reference")
	require.Error(t, err, "oversized recognized text should be rejected")

	_, err = estimator.Estimate(context.Background(), "recognized", oversized)
	require.Error(t, err, "oversized reference text should be rejected")
}

// TestNewOCRQualityEstimator_RejectsInvalidConfig verifies configuration
// validation.
func TestNewOCRQualityEstimator_RejectsInvalidConfig(t *testing.T) {
	_, err := NewOCRQualityEstimator(OCRQualityConfig{Threshold: 1.5})
	require.Error(t, err, "threshold above 1.0 should be rejected")

	_, err = NewOCRQualityEstimator(OCRQualityConfig{Threshold: -0.1})
	require.Error(t, err, "negative threshold should be rejected")
}
