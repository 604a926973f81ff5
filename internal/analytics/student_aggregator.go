package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/chamikara/rachana/internal/domain"
)

// StudentAggregator folds a flat, unordered collection of upload records
// into a sorted list of per-student summaries: essay count, running average
// score, and most recent upload time, ready for paginated display.
//
// The fold maintains the average incrementally via
// newAvg = (oldAvg*oldScoredCount + newScore) / (oldScoredCount + 1),
// which is O(1) per record and numerically stable at classroom scale.
// Rounding to two decimal places happens once, after the fold, so rounding
// error never compounds across records.
//
// The aggregator is stateless and thread-safe; configuration is immutable
// after creation.
type StudentAggregator struct {
	config AggregatorConfig
}

// AggregatorConfig controls validation strictness and attribute-conflict
// resolution for student aggregation.
type AggregatorConfig struct {
	// InvalidRecords selects strict rejection or best-effort skipping of
	// records missing a student id or upload timestamp.
	InvalidRecords InvalidRecordPolicy `yaml:"invalid_records" json:"invalid_records" validate:"required,oneof=strict skip"`

	// Attributes selects which record wins when the same student's records
	// carry conflicting descriptive attributes.
	Attributes AttributePolicy `yaml:"attributes" json:"attributes" validate:"required,oneof=first_seen last_seen"`

	// RoundPlaces is the number of decimal places kept on the presented
	// average score.
	RoundPlaces int32 `yaml:"round_places" json:"round_places" validate:"min=0,max=4"`
}

// DefaultAggregatorConfig returns the production defaults: strict
// validation, first-seen attribute resolution, and two decimal places.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		InvalidRecords: PolicyStrict,
		Attributes:     AttrFirstSeen,
		RoundPlaces:    2,
	}
}

// NewStudentAggregator creates a StudentAggregator with a validated
// configuration. Returns an error if the configuration violates its
// constraints.
func NewStudentAggregator(config AggregatorConfig) (*StudentAggregator, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &StudentAggregator{config: config}, nil
}

// AggregateByStudent folds records into per-student summaries using the
// default configuration. This is the convenience entry point matching the
// dashboard's read path.
func AggregateByStudent(records []domain.UploadRecord) ([]domain.StudentSummary, error) {
	agg, err := NewStudentAggregator(DefaultAggregatorConfig())
	if err != nil {
		return nil, err
	}
	return agg.Aggregate(records)
}

// Aggregate groups records by student id and produces summaries sorted
// descending by last upload time. The input is never mutated; an empty
// input yields an empty output.
//
// Under PolicyStrict, the first record with an empty student id or zero
// upload time fails the whole call with a *domain.ValidationError, so no
// partially aggregated view can reach the caller. Under PolicySkip such
// records are dropped and the fold continues.
func (a *StudentAggregator) Aggregate(records []domain.UploadRecord) ([]domain.StudentSummary, error) {
	if a == nil {
		return nil, ErrNilAggregator
	}

	groups := make(map[string]*domain.StudentSummary, len(records))
	// order preserves first-seen group order so repeated calls on the same
	// input walk groups identically.
	order := make([]string, 0, len(records))

	for _, rec := range records {
		if err := validateUploadRecord(rec); err != nil {
			if a.config.InvalidRecords == PolicySkip {
				continue
			}
			return nil, err
		}

		summary, ok := groups[rec.StudentID]
		if !ok {
			s := seedSummary(rec)
			groups[rec.StudentID] = s
			order = append(order, rec.StudentID)
			continue
		}

		foldRecord(summary, rec, a.config.Attributes)
	}

	summaries := make([]domain.StudentSummary, 0, len(order))
	for _, id := range order {
		s := groups[id]
		if s.AverageScore != nil {
			rounded := roundHalfUp(*s.AverageScore, a.config.RoundPlaces)
			s.AverageScore = &rounded
		}
		summaries = append(summaries, *s)
	}

	sortNewestFirst(summaries, func(s domain.StudentSummary) int64 {
		return s.LastUploadDate.UnixNano()
	})

	return summaries, nil
}

// validateUploadRecord checks the two key fields every aggregation depends
// on. Descriptive attributes and scores are optional by design.
func validateUploadRecord(rec domain.UploadRecord) error {
	if rec.StudentID == "" {
		return domain.NewValidationError("UploadRecord", rec.ID, "student_id")
	}
	if rec.UploadedAt.IsZero() {
		return domain.NewValidationError("UploadRecord", rec.ID, "uploaded_at")
	}
	return nil
}

// seedSummary starts a group from its first record. Descriptive attributes
// are always seeded here; the attribute policy only matters for later
// records.
func seedSummary(rec domain.UploadRecord) *domain.StudentSummary {
	s := &domain.StudentSummary{
		StudentID:      rec.StudentID,
		StudentName:    rec.StudentName,
		StudentAge:     rec.StudentAge,
		StudentGrade:   rec.StudentGrade,
		StudentGender:  rec.StudentGender,
		EssayCount:     1,
		Essays:         []domain.UploadRecord{rec},
		LastUploadDate: rec.UploadedAt,
	}
	if rec.Score != nil {
		score := *rec.Score
		s.ScoredCount = 1
		s.AverageScore = &score
	}
	return s
}

// foldRecord merges one additional record into an existing group.
// The running average always uses the pre-rounded value.
func foldRecord(s *domain.StudentSummary, rec domain.UploadRecord, policy AttributePolicy) {
	s.EssayCount++
	s.Essays = append(s.Essays, rec)

	if rec.UploadedAt.After(s.LastUploadDate) {
		s.LastUploadDate = rec.UploadedAt
	}

	if rec.Score != nil {
		if s.AverageScore == nil {
			score := *rec.Score
			s.AverageScore = &score
		} else {
			newAvg := (*s.AverageScore*float64(s.ScoredCount) + *rec.Score) / float64(s.ScoredCount+1)
			s.AverageScore = &newAvg
		}
		s.ScoredCount++
	}

	if policy == AttrLastSeen {
		s.StudentName = rec.StudentName
		s.StudentAge = rec.StudentAge
		s.StudentGrade = rec.StudentGrade
		s.StudentGender = rec.StudentGender
	}
}

// roundHalfUp rounds to the given number of decimal places using half-up
// semantics, matching how scores are shown on report cards. Plain
// math.Round on the scaled float drifts on values like 2.675; decimal
// arithmetic does not.
func roundHalfUp(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
