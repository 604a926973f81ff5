// Package domain contains pure, dependency-free domain models and types
// for the essay analytics engine.
package domain

import (
	"time"
)

// UploadRecord represents a single scanned essay image uploaded under a
// teacher's account. Records arrive from the remote record store as a flat,
// unordered collection; the aggregation layer groups them by student.
type UploadRecord struct {
	// ID uniquely identifies this upload. It is opaque to the engine.
	ID string `json:"id"`

	// StudentID identifies the student who authored the essay.
	// It is a non-empty, case-sensitive exact-match grouping key.
	StudentID string `json:"student_id"`

	// StudentName is an optional display name carried through unchanged.
	StudentName string `json:"student_name,omitempty"`

	// StudentAge, StudentGrade, and StudentGender are optional descriptive
	// attributes. When records for the same student disagree, the aggregator's
	// attribute policy decides which value wins.
	StudentAge    int    `json:"student_age,omitempty"`
	StudentGrade  string `json:"student_grade,omitempty"`
	StudentGender string `json:"student_gender,omitempty"`

	// ImageURL points at the stored essay image. Opaque pass-through.
	ImageURL string `json:"image_url,omitempty"`

	// OCRText holds the recognized Sinhala text once the remote OCR step
	// has completed. Empty until then.
	OCRText string `json:"ocr_text,omitempty"`

	// Feedback holds generated feedback text, if any.
	Feedback string `json:"feedback,omitempty"`

	// UploadedAt records when the image was uploaded. Required; it drives
	// both recency sorting and the per-student last-upload computation.
	UploadedAt time.Time `json:"uploaded_at"`

	// Score is the numeric grading result. It is nil until the remote
	// scoring step completes.
	Score *float64 `json:"score,omitempty"`
}

// Scored reports whether the remote scoring step has completed for this
// record.
func (r UploadRecord) Scored() bool { return r.Score != nil }

// StudentSummary is the derived per-student view produced by the aggregator.
// It exists only as the output of one aggregation call and is rebuilt from
// scratch on every refresh; no summary state survives between calls.
type StudentSummary struct {
	// StudentID is the grouping key, unique within one summary list.
	StudentID string `json:"student_id"`

	// StudentName and the descriptive attributes below are resolved from
	// the group's records according to the configured attribute policy.
	StudentName   string `json:"student_name,omitempty"`
	StudentAge    int    `json:"student_age,omitempty"`
	StudentGrade  string `json:"student_grade,omitempty"`
	StudentGender string `json:"student_gender,omitempty"`

	// EssayCount is the number of records observed for this student.
	// Always >= 1 and always equal to len(Essays).
	EssayCount int `json:"essay_count"`

	// Essays holds the student's own upload records in input order.
	// Downstream drill-down views rely on this ordering being preserved.
	Essays []UploadRecord `json:"essays"`

	// ScoredCount is the number of records in this group with a score.
	ScoredCount int `json:"scored_count"`

	// AverageScore is the arithmetic mean of the present scores, rounded to
	// two decimal places for presentation. Nil iff ScoredCount == 0.
	AverageScore *float64 `json:"average_score,omitempty"`

	// LastUploadDate is the maximum UploadedAt across the group.
	LastUploadDate time.Time `json:"last_upload_date"`
}

// EssayEvaluation is the structured result returned by a remote grading
// service for a single essay. The engine treats the service as an opaque
// request/response contract; only the shape of the response is known.
type EssayEvaluation struct {
	// Score is the grading result on the service's scale.
	Score float64 `json:"score"`

	// Feedback contains generated, student-facing feedback text.
	Feedback string `json:"feedback"`

	// CorrectedText is the service's cleaned-up version of the OCR text,
	// used for OCR quality estimation. May be empty.
	CorrectedText string `json:"corrected_text,omitempty"`
}

// OCRQualityReport holds the outcome of comparing recognized text against
// a reference transcription.
type OCRQualityReport struct {
	// Similarity is the normalized edit similarity in [0.0, 1.0].
	Similarity float64 `json:"similarity"`

	// Acceptable reports whether Similarity met the configured threshold.
	Acceptable bool `json:"acceptable"`
}
