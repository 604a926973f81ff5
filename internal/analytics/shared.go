// Package analytics implements the pure, deterministic reduction algorithms
// at the heart of the essay-grading dashboard: grouping flat upload records
// into ranked per-student summaries, and collapsing historical evaluation
// reports to the most recent per grade level.
//
// Every function in this package is a stateless fold over an in-memory input
// slice. Inputs are never mutated and outputs are freshly allocated, so all
// entry points are safe for concurrent use. Callers own paging, filtering
// state, and refresh timing; re-applying a view means re-invoking the
// reduction, not mutating prior output.
package analytics

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// InvalidRecordPolicy selects how a reduction treats records that fail
// input validation. The chosen policy is applied uniformly to the whole
// input, never mixed within a call.
type InvalidRecordPolicy string

const (
	// PolicyStrict rejects the whole call with a *domain.ValidationError
	// on the first invalid record. No partial output is produced.
	PolicyStrict InvalidRecordPolicy = "strict"

	// PolicySkip drops invalid records and continues, for callers that
	// prefer a best-effort view over a hard failure.
	PolicySkip InvalidRecordPolicy = "skip"
)

// AttributePolicy selects which record's descriptive attributes
// (name, age, grade, gender) win when records for the same student disagree.
type AttributePolicy string

const (
	// AttrFirstSeen keeps the attributes of the first record encountered
	// for a student. This matches the historical dashboard behavior.
	AttrFirstSeen AttributePolicy = "first_seen"

	// AttrLastSeen overwrites attributes with each later record,
	// so the most recently processed record's values win.
	AttrLastSeen AttributePolicy = "last_seen"
)

// ReportMode selects between the collapsed latest-per-category view and the
// full history view of evaluation reports.
type ReportMode string

const (
	// ModeLatest collapses the input to one report per category, keeping
	// the most recent by timestamp.
	ModeLatest ReportMode = "latest"

	// ModeHistory keeps every report.
	ModeHistory ReportMode = "history"
)

// Common errors returned by the reduction components.
var (
	// ErrUnknownMode is returned when a report reduction is invoked with a
	// mode other than ModeLatest or ModeHistory.
	ErrUnknownMode = errors.New("unknown report mode")

	// ErrNilAggregator is returned when a nil aggregator is used.
	ErrNilAggregator = errors.New("aggregator is nil")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()
