// Package api exposes the dashboard over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chamikara/rachana/internal/analytics"
	"github.com/chamikara/rachana/internal/application"
	"github.com/chamikara/rachana/internal/domain"
)

// DashboardAPI is the slice of the application service the HTTP layer
// depends on. Handlers are tested against this interface.
type DashboardAPI interface {
	StudentPage(ctx context.Context, ownerID string, page int) (application.StudentPageResult, error)
	ReportView(ctx context.Context, mode analytics.ReportMode, category domain.Category) ([]application.ClassifiedReport, error)
	Overview(ctx context.Context, ownerID string) (application.Overview, error)
	SubmitUpload(ctx context.Context, ownerID string, record domain.UploadRecord) error
	RecordEvaluation(ctx context.Context, report domain.EvaluationReport) error
}

// Server wires the HTTP routes to the dashboard service.
type Server struct {
	service     DashboardAPI
	defaultMode analytics.ReportMode
	logger      *zap.Logger
	engine      *gin.Engine
}

// NewServer builds the router. The default report mode is served when a
// request names none.
func NewServer(service DashboardAPI, defaultMode analytics.ReportMode, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		service:     service,
		defaultMode: defaultMode,
		logger:      logger,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/students", s.handleStudents)
		v1.GET("/reports", s.handleReports)
		v1.GET("/overview", s.handleOverview)
		v1.POST("/uploads", s.handleSubmitUpload)
		v1.POST("/reports", s.handleRecordEvaluation)
	}

	s.engine = engine
	return s
}

// Handler returns the underlying http.Handler, used by tests and by the
// serve command.
func (s *Server) Handler() http.Handler { return s.engine }

// Run starts the HTTP server with sane timeouts and shuts it down when
// the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
