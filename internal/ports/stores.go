// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/chamikara/rachana/internal/domain"
)

// UploadStore supplies the raw, unordered per-image upload records for one
// teacher's account. The aggregation core treats the store as "a function
// that returns an array of records asynchronously"; query language,
// authentication, and persistence concerns all live behind this interface.
type UploadStore interface {
	// ListByOwner returns every upload record belonging to the given
	// account, in no particular order. An account with no uploads yields
	// an empty slice, not an error.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.UploadRecord, error)

	// Save persists a new or re-scored upload record.
	Save(ctx context.Context, ownerID string, record domain.UploadRecord) error
}

// ReportStore supplies historical fairness-evaluation reports.
type ReportStore interface {
	// List returns every stored evaluation report, in no particular order.
	List(ctx context.Context) ([]domain.EvaluationReport, error)

	// Append persists a new evaluation report.
	Append(ctx context.Context, report domain.EvaluationReport) error
}
