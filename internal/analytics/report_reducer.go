package analytics

import (
	"fmt"

	"github.com/chamikara/rachana/internal/domain"
)

// ReportReducer collapses historical fairness-evaluation reports to the
// most recent per grade level while still supporting a full-history view.
// Like the student aggregator it is a stateless single-pass fold; the mode
// and category filter are per-call inputs, not reducer state.
type ReportReducer struct {
	config ReducerConfig
}

// ReducerConfig controls validation strictness for report reduction.
type ReducerConfig struct {
	// InvalidRecords selects strict rejection or best-effort skipping of
	// reports missing a category or evaluation timestamp.
	InvalidRecords InvalidRecordPolicy `yaml:"invalid_records" json:"invalid_records" validate:"required,oneof=strict skip"`
}

// DefaultReducerConfig returns the production default: strict validation.
func DefaultReducerConfig() ReducerConfig {
	return ReducerConfig{InvalidRecords: PolicyStrict}
}

// NewReportReducer creates a ReportReducer with a validated configuration.
func NewReportReducer(config ReducerConfig) (*ReportReducer, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &ReportReducer{config: config}, nil
}

// ReduceReportsByCategory reduces reports with the default strict
// configuration. This is the convenience entry point matching the
// dashboard's read path.
func ReduceReportsByCategory(
	reports []domain.EvaluationReport,
	mode ReportMode,
	categoryFilter domain.Category,
) ([]domain.EvaluationReport, error) {
	r, err := NewReportReducer(DefaultReducerConfig())
	if err != nil {
		return nil, err
	}
	return r.Reduce(reports, mode, categoryFilter)
}

// Reduce produces the requested view, newest first.
//
// In ModeLatest the input is first collapsed to one report per category:
// a single left-to-right pass keeps a report only when its timestamp is
// strictly greater than the current best, so on an exact-timestamp tie the
// earlier-encountered report wins. The category filter and descending sort
// are then applied. ModeHistory skips the collapse and otherwise proceeds
// identically, so its (filtered) output length equals the (filtered) input
// length.
func (r *ReportReducer) Reduce(
	reports []domain.EvaluationReport,
	mode ReportMode,
	categoryFilter domain.Category,
) ([]domain.EvaluationReport, error) {
	if mode != ModeLatest && mode != ModeHistory {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	valid, err := r.validated(reports)
	if err != nil {
		return nil, err
	}

	out := valid
	if mode == ModeLatest {
		out = collapseLatest(valid)
	}

	if categoryFilter != domain.CategoryAll {
		out = Filter(out, func(rep domain.EvaluationReport) bool {
			return rep.Category == categoryFilter
		})
	}

	sortNewestFirst(out, func(rep domain.EvaluationReport) int64 {
		return rep.EvaluatedAt.UnixNano()
	})

	return out, nil
}

// View builds the combined CategoryView over the input: latest report per
// category plus the full history sorted newest first.
func (r *ReportReducer) View(reports []domain.EvaluationReport) (domain.CategoryView, error) {
	valid, err := r.validated(reports)
	if err != nil {
		return domain.CategoryView{}, err
	}

	latest := make(map[domain.Category]domain.EvaluationReport, len(valid))
	for _, rep := range valid {
		if best, ok := latest[rep.Category]; !ok || rep.EvaluatedAt.After(best.EvaluatedAt) {
			latest[rep.Category] = rep
		}
	}

	all := make([]domain.EvaluationReport, len(valid))
	copy(all, valid)
	sortNewestFirst(all, func(rep domain.EvaluationReport) int64 {
		return rep.EvaluatedAt.UnixNano()
	})

	return domain.CategoryView{LatestByCategory: latest, AllSorted: all}, nil
}

// validated applies the invalid-record policy and returns a fresh slice so
// later steps never alias the caller's input.
func (r *ReportReducer) validated(reports []domain.EvaluationReport) ([]domain.EvaluationReport, error) {
	valid := make([]domain.EvaluationReport, 0, len(reports))
	for _, rep := range reports {
		if err := validateReport(rep); err != nil {
			if r.config.InvalidRecords == PolicySkip {
				continue
			}
			return nil, err
		}
		valid = append(valid, rep)
	}
	return valid, nil
}

func validateReport(rep domain.EvaluationReport) error {
	if rep.Category == "" {
		return domain.NewValidationError("EvaluationReport", rep.ID, "category")
	}
	if rep.EvaluatedAt.IsZero() {
		return domain.NewValidationError("EvaluationReport", rep.ID, "evaluated_at")
	}
	return nil
}

// collapseLatest keeps the most recent report per category, replacing only
// on a strictly greater timestamp. The result preserves the first-seen
// category encounter order prior to sorting, keeping the pass
// deterministic for a given input order.
func collapseLatest(reports []domain.EvaluationReport) []domain.EvaluationReport {
	best := make(map[domain.Category]int, len(reports))
	order := make([]domain.Category, 0, len(reports))

	for i, rep := range reports {
		idx, ok := best[rep.Category]
		if !ok {
			best[rep.Category] = i
			order = append(order, rep.Category)
			continue
		}
		if rep.EvaluatedAt.After(reports[idx].EvaluatedAt) {
			best[rep.Category] = i
		}
	}

	out := make([]domain.EvaluationReport, 0, len(order))
	for _, cat := range order {
		out = append(out, reports[best[cat]])
	}
	return out
}
