package analytics

import (
	"fmt"

	"github.com/chamikara/rachana/internal/domain"
)

// BiasLabel classifies a fairness-evaluation report into one of three
// outcomes based on the measured score ratio between the compared groups.
type BiasLabel string

const (
	// BiasAgainst indicates the measured ratio falls below the lower
	// threshold: the model scores one group noticeably lower.
	BiasAgainst BiasLabel = "bias_against"

	// BiasNone indicates the ratio sits inside the acceptance band.
	BiasNone BiasLabel = "no_significant_bias"

	// BiasInFavor indicates the ratio exceeds the upper threshold:
	// the model scores one group noticeably higher.
	BiasInFavor BiasLabel = "bias_in_favor"
)

// BiasThresholds holds the fixed acceptance band for the score ratio.
// The defaults follow the four-fifths rule on the low side with a
// symmetric-ish allowance on the high side.
type BiasThresholds struct {
	// Lower is the threshold below which the ratio indicates bias against
	// the reference group.
	Lower float64 `yaml:"lower" json:"lower" validate:"gt=0"`

	// Upper is the threshold above which the ratio indicates bias in the
	// reference group's favor.
	Upper float64 `yaml:"upper" json:"upper" validate:"gtfield=Lower"`
}

// DefaultBiasThresholds returns the fixed thresholds used by the dashboard.
func DefaultBiasThresholds() BiasThresholds {
	return BiasThresholds{Lower: 0.8, Upper: 1.25}
}

// NewBiasThresholds validates a custom acceptance band.
func NewBiasThresholds(lower, upper float64) (BiasThresholds, error) {
	t := BiasThresholds{Lower: lower, Upper: upper}
	if err := validate.Struct(t); err != nil {
		return BiasThresholds{}, fmt.Errorf("threshold validation failed: %w", err)
	}
	return t, nil
}

// Classify maps a report's ratio pair onto a bias label. Only the mean
// score ratio participates in the decision today; the top-band ratio is
// accepted so the signature matches the report's measurement pair.
// The bounds themselves count as "no significant bias".
func (t BiasThresholds) Classify(meanScoreRatio, _ float64) BiasLabel {
	switch {
	case meanScoreRatio < t.Lower:
		return BiasAgainst
	case meanScoreRatio > t.Upper:
		return BiasInFavor
	default:
		return BiasNone
	}
}

// ClassifyReport labels a single evaluation report.
func (t BiasThresholds) ClassifyReport(rep domain.EvaluationReport) BiasLabel {
	return t.Classify(rep.MeanScoreRatio, rep.TopBandRatio)
}

// ClassifyBias labels a ratio pair with the default thresholds.
// It is the pure, independently testable classification function used by
// the report views.
func ClassifyBias(meanScoreRatio, topBandRatio float64) BiasLabel {
	return DefaultBiasThresholds().Classify(meanScoreRatio, topBandRatio)
}
