package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chamikara/rachana/internal/analytics"
	"github.com/chamikara/rachana/internal/domain"
	"github.com/chamikara/rachana/internal/ports"
)

// DashboardService implements the dashboard's read and write use cases
// over the reduction core. It is safe for concurrent use; the reduction
// policies are the only mutable state, swapped atomically on config
// reload.
type DashboardService struct {
	uploads  ports.UploadStore
	reports  ports.ReportStore
	grader   ports.GraderClient
	ocr      ports.OCRQualityEstimator
	pageSize int
	logger   *zap.Logger
	metrics  ports.MetricsCollector

	mu         sync.RWMutex
	aggregator *analytics.StudentAggregator
	reducer    *analytics.ReportReducer
	thresholds analytics.BiasThresholds
}

// ServiceParams collects the dependencies of a DashboardService.
// Grader, OCR, and Metrics are optional; the rest are required.
type ServiceParams struct {
	Uploads    ports.UploadStore
	Reports    ports.ReportStore
	Grader     ports.GraderClient
	OCR        ports.OCRQualityEstimator
	Aggregator *analytics.StudentAggregator
	Reducer    *analytics.ReportReducer
	Thresholds analytics.BiasThresholds
	PageSize   int
	Logger     *zap.Logger
	Metrics    ports.MetricsCollector
}

// NewDashboardService validates the wiring and returns a ready service.
func NewDashboardService(p ServiceParams) (*DashboardService, error) {
	if p.Uploads == nil {
		return nil, fmt.Errorf("upload store is required")
	}
	if p.Reports == nil {
		return nil, fmt.Errorf("report store is required")
	}
	if p.Aggregator == nil {
		return nil, fmt.Errorf("aggregator is required")
	}
	if p.Reducer == nil {
		return nil, fmt.Errorf("reducer is required")
	}
	if p.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", p.PageSize)
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}

	return &DashboardService{
		uploads:    p.Uploads,
		reports:    p.Reports,
		grader:     p.Grader,
		ocr:        p.OCR,
		aggregator: p.Aggregator,
		reducer:    p.Reducer,
		thresholds: p.Thresholds,
		pageSize:   p.PageSize,
		logger:     p.Logger,
		metrics:    p.Metrics,
	}, nil
}

// ApplyAnalyticsConfig swaps the reduction policies at runtime, so a
// config-file change takes effect without a restart. The swap is atomic:
// in-flight requests finish with the policies they started with, and an
// invalid configuration leaves the current policies untouched.
func (s *DashboardService) ApplyAnalyticsConfig(cfg AnalyticsConfig) error {
	aggregator, err := analytics.NewStudentAggregator(cfg.Aggregator)
	if err != nil {
		return fmt.Errorf("invalid aggregator config: %w", err)
	}
	reducer, err := analytics.NewReportReducer(cfg.Reducer)
	if err != nil {
		return fmt.Errorf("invalid reducer config: %w", err)
	}
	thresholds, err := analytics.NewBiasThresholds(cfg.Bias.Lower, cfg.Bias.Upper)
	if err != nil {
		return fmt.Errorf("invalid bias thresholds: %w", err)
	}

	s.mu.Lock()
	s.aggregator = aggregator
	s.reducer = reducer
	s.thresholds = thresholds
	s.mu.Unlock()

	s.logger.Info("analytics configuration applied",
		zap.String("invalid_records", string(cfg.Aggregator.InvalidRecords)),
		zap.Float64("bias_lower", thresholds.Lower),
		zap.Float64("bias_upper", thresholds.Upper))
	return nil
}

// policies returns a consistent snapshot of the reduction policies.
func (s *DashboardService) policies() (*analytics.StudentAggregator, *analytics.ReportReducer, analytics.BiasThresholds) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aggregator, s.reducer, s.thresholds
}

// StudentPageResult is one page of the ranked student list plus the
// paging facts the presentation layer needs to render controls.
type StudentPageResult struct {
	Students      []domain.StudentSummary `json:"students"`
	Page          int                     `json:"page"`
	PageCount     int                     `json:"page_count"`
	TotalStudents int                     `json:"total_students"`
}

// StudentPage aggregates the owner's uploads and returns the requested
// zero-indexed page of student summaries, newest activity first.
func (s *DashboardService) StudentPage(ctx context.Context, ownerID string, page int) (StudentPageResult, error) {
	start := time.Now()

	records, err := s.uploads.ListByOwner(ctx, ownerID)
	if err != nil {
		return StudentPageResult{}, fmt.Errorf("failed to load uploads: %w", err)
	}

	aggregator, _, _ := s.policies()
	summaries, err := aggregator.Aggregate(records)
	if err != nil {
		return StudentPageResult{}, fmt.Errorf("failed to aggregate uploads: %w", err)
	}

	result := StudentPageResult{
		Students:      analytics.Page(summaries, page, s.pageSize),
		Page:          page,
		PageCount:     analytics.PageCount(len(summaries), s.pageSize),
		TotalStudents: len(summaries),
	}

	s.observe("student_page", start, map[string]string{"owner": ownerID})
	s.logger.Debug("student page served",
		zap.String("owner_id", ownerID),
		zap.Int("page", page),
		zap.Int("total_students", result.TotalStudents))

	return result, nil
}

// ClassifiedReport pairs an evaluation report with its bias label so the
// presentation layer never re-derives the classification.
type ClassifiedReport struct {
	domain.EvaluationReport
	Bias analytics.BiasLabel `json:"bias"`
}

// ReportView reduces stored evaluation reports to the requested view and
// labels each surviving report.
func (s *DashboardService) ReportView(
	ctx context.Context,
	mode analytics.ReportMode,
	category domain.Category,
) ([]ClassifiedReport, error) {
	start := time.Now()

	reports, err := s.reports.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}

	_, reducer, thresholds := s.policies()
	reduced, err := reducer.Reduce(reports, mode, category)
	if err != nil {
		return nil, fmt.Errorf("failed to reduce reports: %w", err)
	}

	classified := make([]ClassifiedReport, len(reduced))
	for i, rep := range reduced {
		classified[i] = ClassifiedReport{
			EvaluationReport: rep,
			Bias:             thresholds.ClassifyReport(rep),
		}
	}

	s.observe("report_view", start, map[string]string{"mode": string(mode)})
	return classified, nil
}

// Overview is the combined landing-page payload: the first student page
// and the latest report per grade level.
type Overview struct {
	Students StudentPageResult  `json:"students"`
	Reports  []ClassifiedReport `json:"reports"`
}

// Overview fetches both halves of the landing page concurrently.
// Either failure fails the whole call; the dashboard never renders a
// partially loaded overview.
func (s *DashboardService) Overview(ctx context.Context, ownerID string) (Overview, error) {
	var overview Overview

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := s.StudentPage(ctx, ownerID, 0)
		if err != nil {
			return err
		}
		overview.Students = page
		return nil
	})
	g.Go(func() error {
		reports, err := s.ReportView(ctx, analytics.ModeLatest, domain.CategoryAll)
		if err != nil {
			return err
		}
		overview.Reports = reports
		return nil
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return overview, nil
}

// SubmitUpload grades an upload's recognized text when a grading client
// is configured and the record is not yet scored, then persists it.
func (s *DashboardService) SubmitUpload(ctx context.Context, ownerID string, record domain.UploadRecord) error {
	start := time.Now()

	if s.grader != nil && record.Score == nil && record.OCRText != "" {
		eval, err := s.grader.Grade(ctx, record.OCRText, nil)
		if err != nil {
			return fmt.Errorf("failed to grade essay: %w", err)
		}
		record.Score = &eval.Score
		record.Feedback = eval.Feedback

		if s.metrics != nil {
			s.metrics.RecordHistogram("essay_score_distribution", eval.Score,
				map[string]string{"grade": record.StudentGrade})
		}

		s.checkOCRQuality(ctx, record, eval)
	}

	if err := s.uploads.Save(ctx, ownerID, record); err != nil {
		return fmt.Errorf("failed to save upload: %w", err)
	}

	s.observe("submit_upload", start, map[string]string{"owner": ownerID})
	s.logger.Info("upload submitted",
		zap.String("owner_id", ownerID),
		zap.String("student_id", record.StudentID),
		zap.Bool("scored", record.Scored()))

	return nil
}

// checkOCRQuality compares the recognized text against the grader's
// corrected version and records the similarity. The check is advisory:
// a low score or an estimation failure is logged but never blocks the
// upload.
func (s *DashboardService) checkOCRQuality(ctx context.Context, record domain.UploadRecord, eval domain.EssayEvaluation) {
	if s.ocr == nil || eval.CorrectedText == "" {
		return
	}

	quality, err := s.ocr.Estimate(ctx, record.OCRText, eval.CorrectedText)
	if err != nil {
		s.logger.Warn("ocr quality estimation failed",
			zap.String("student_id", record.StudentID),
			zap.Error(err))
		return
	}

	if s.metrics != nil {
		s.metrics.RecordHistogram("ocr_similarity", quality.Similarity,
			map[string]string{"grade": record.StudentGrade})
	}
	if !quality.Acceptable {
		s.logger.Warn("recognized text diverges from the corrected essay",
			zap.String("student_id", record.StudentID),
			zap.Float64("similarity", quality.Similarity))
	}
}

// RecordEvaluation persists a fairness-evaluation report and logs its
// classification.
func (s *DashboardService) RecordEvaluation(ctx context.Context, report domain.EvaluationReport) error {
	if err := s.reports.Append(ctx, report); err != nil {
		return fmt.Errorf("failed to record evaluation: %w", err)
	}

	_, _, thresholds := s.policies()
	s.logger.Info("evaluation recorded",
		zap.String("category", string(report.Category)),
		zap.String("bias", string(thresholds.ClassifyReport(report))),
		zap.Int("sample_size", report.SampleSize))

	return nil
}

func (s *DashboardService) observe(operation string, start time.Time, labels map[string]string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordLatency(operation, time.Since(start), labels)
	s.metrics.RecordCounter("dashboard_operations_total", 1,
		map[string]string{"operation": operation, "status": "success"})
}
