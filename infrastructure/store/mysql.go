// Package store persists uploads and evaluation reports in MySQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chamikara/rachana/internal/domain"
	"github.com/chamikara/rachana/internal/ports"
)

var (
	_ ports.UploadStore = (*MySQLStore)(nil)
	_ ports.ReportStore = (*MySQLStore)(nil)
)

// MySQLStore implements the upload and report stores on a shared MySQL
// connection pool. It is safe for concurrent use; all synchronization is
// delegated to database/sql.
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// Config holds the connection parameters for the MySQL pool.
type Config struct {
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Host     string `yaml:"host" validate:"required"`
	Port     string `yaml:"port" validate:"required"`
	Database string `yaml:"database" validate:"required"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DefaultConfig returns a Config with the pool sizing used in
// production.
func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            "3306",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DSN renders the config as a go-sql-driver connection string.
// parseTime is required so DATETIME columns scan into time.Time.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Open connects to MySQL, verifies the connection, and returns a ready
// store.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return NewMySQLStore(db, logger), nil
}

// NewMySQLStore wraps an existing connection pool. Tests use this with
// sqlmock; production code goes through Open.
func NewMySQLStore(db *sql.DB, logger *zap.Logger) *MySQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MySQLStore{db: db, logger: logger}
}

// Close releases the connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the uploads and evaluation_reports tables if they
// do not exist.
func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS uploads (
			id VARCHAR(36) NOT NULL,
			owner_id VARCHAR(64) NOT NULL,
			student_id VARCHAR(64) NOT NULL,
			student_name VARCHAR(255) NOT NULL,
			student_age INT NOT NULL,
			student_grade VARCHAR(32) NOT NULL,
			student_gender VARCHAR(32) NOT NULL,
			image_url TEXT,
			ocr_text MEDIUMTEXT,
			feedback MEDIUMTEXT,
			score DOUBLE NULL,
			uploaded_at DATETIME(6) NOT NULL,
			PRIMARY KEY (id),
			INDEX idx_uploads_owner (owner_id),
			INDEX idx_uploads_student (student_id)
		)`,
		`CREATE TABLE IF NOT EXISTS evaluation_reports (
			id VARCHAR(36) NOT NULL,
			category VARCHAR(64) NOT NULL,
			evaluated_at DATETIME(6) NOT NULL,
			mean_score_ratio DOUBLE NOT NULL,
			top_band_ratio DOUBLE NOT NULL,
			sample_size INT NOT NULL,
			PRIMARY KEY (id),
			INDEX idx_reports_category (category)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	s.logger.Info("database schema ensured")
	return nil
}

// ListByOwner returns every upload belonging to the given owner, oldest
// first so downstream folds see records in upload order.
func (s *MySQLStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.UploadRecord, error) {
	const query = `
		SELECT id, student_id, student_name, student_age, student_grade,
		       student_gender, image_url, ocr_text, feedback, score, uploaded_at
		FROM uploads
		WHERE owner_id = ?
		ORDER BY uploaded_at ASC`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var records []domain.UploadRecord
	for rows.Next() {
		var (
			rec   domain.UploadRecord
			score sql.NullFloat64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.StudentID,
			&rec.StudentName,
			&rec.StudentAge,
			&rec.StudentGrade,
			&rec.StudentGender,
			&rec.ImageURL,
			&rec.OCRText,
			&rec.Feedback,
			&score,
			&rec.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan upload row: %w", err)
		}
		if score.Valid {
			v := score.Float64
			rec.Score = &v
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate upload rows: %w", err)
	}

	return records, nil
}

// Save inserts an upload record, minting an ID when the record carries
// none.
func (s *MySQLStore) Save(ctx context.Context, ownerID string, record domain.UploadRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	var score sql.NullFloat64
	if record.Score != nil {
		score = sql.NullFloat64{Float64: *record.Score, Valid: true}
	}

	const query = `
		INSERT INTO uploads (id, owner_id, student_id, student_name, student_age,
		                     student_grade, student_gender, image_url, ocr_text,
		                     feedback, score, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		ownerID,
		record.StudentID,
		record.StudentName,
		record.StudentAge,
		record.StudentGrade,
		record.StudentGender,
		record.ImageURL,
		record.OCRText,
		record.Feedback,
		score,
		record.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}

	s.logger.Debug("upload saved",
		zap.String("id", record.ID),
		zap.String("student_id", record.StudentID))
	return nil
}

// List returns every evaluation report, newest first.
func (s *MySQLStore) List(ctx context.Context) ([]domain.EvaluationReport, error) {
	const query = `
		SELECT id, category, evaluated_at, mean_score_ratio, top_band_ratio, sample_size
		FROM evaluation_reports
		ORDER BY evaluated_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.EvaluationReport
	for rows.Next() {
		var rep domain.EvaluationReport
		if err := rows.Scan(
			&rep.ID,
			&rep.Category,
			&rep.EvaluatedAt,
			&rep.MeanScoreRatio,
			&rep.TopBandRatio,
			&rep.SampleSize,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report rows: %w", err)
	}

	return reports, nil
}

// Append inserts an evaluation report, minting an ID when the report
// carries none.
func (s *MySQLStore) Append(ctx context.Context, report domain.EvaluationReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}

	const query = `
		INSERT INTO evaluation_reports (id, category, evaluated_at,
		                                mean_score_ratio, top_band_ratio, sample_size)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		report.ID,
		report.Category,
		report.EvaluatedAt,
		report.MeanScoreRatio,
		report.TopBandRatio,
		report.SampleSize,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	s.logger.Debug("report appended",
		zap.String("id", report.ID),
		zap.String("category", string(report.Category)))
	return nil
}
