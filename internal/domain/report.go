package domain

import (
	"time"
)

// Category is the discrete key used to group evaluation reports.
// In practice this is a grade level such as "5" or "10".
type Category string

// CategoryAll is the filter value that passes every report through
// unchanged. It is never a valid Category on a stored report.
const CategoryAll Category = "ALL"

// EvaluationReport is one historical fairness-evaluation run of the scoring
// model for a single grade level. The engine only interprets Category and
// EvaluatedAt; the measurement fields are carried through unchanged.
type EvaluationReport struct {
	// ID uniquely identifies this report. Opaque to the engine.
	ID string `json:"id"`

	// Category is the grade level this report covers.
	Category Category `json:"category"`

	// EvaluatedAt records when the evaluation ran.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// MeanScoreRatio is the ratio of mean scores between the two compared
	// student groups. Values near 1.0 indicate parity.
	MeanScoreRatio float64 `json:"mean_score_ratio"`

	// TopBandRatio is the ratio of top-band placement rates between the two
	// groups. Carried through for display; not used by the classifier today.
	TopBandRatio float64 `json:"top_band_ratio"`

	// SampleSize is the number of essays the evaluation covered.
	SampleSize int `json:"sample_size"`
}

// CategoryView is the derived, read-only view over a report collection:
// the single most recent report per category plus the full history sorted
// newest first.
type CategoryView struct {
	// LatestByCategory maps each category present in the input to the
	// report with the maximum EvaluatedAt in that category.
	LatestByCategory map[Category]EvaluationReport `json:"latest_by_category"`

	// AllSorted is the full input sorted by EvaluatedAt descending.
	AllSorted []EvaluationReport `json:"all_sorted"`
}
