package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chamikara/rachana/internal/analytics"
	"github.com/chamikara/rachana/internal/domain"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "rachana-dashboard",
	})
}

// handleStudents serves GET /api/v1/students?owner=<id>&page=<n>.
// Pages are zero-indexed; a missing page means the first.
func (s *Server) handleStudents(c *gin.Context) {
	ownerID := c.Query("owner")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner query parameter is required"})
		return
	}

	page := 0
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a non-negative integer"})
			return
		}
		page = parsed
	}

	result, err := s.service.StudentPage(c.Request.Context(), ownerID, page)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleReports serves GET /api/v1/reports?mode=<latest|history>&grade=<g>.
// A missing mode falls back to the configured default; a missing grade
// means all grades.
func (s *Server) handleReports(c *gin.Context) {
	mode := s.defaultMode
	if raw := c.Query("mode"); raw != "" {
		mode = analytics.ReportMode(raw)
	}

	category := domain.CategoryAll
	if raw := c.Query("grade"); raw != "" {
		category = domain.Category(raw)
	}

	reports, err := s.service.ReportView(c.Request.Context(), mode, category)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// handleOverview serves GET /api/v1/overview?owner=<id>.
func (s *Server) handleOverview(c *gin.Context) {
	ownerID := c.Query("owner")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner query parameter is required"})
		return
	}

	overview, err := s.service.Overview(c.Request.Context(), ownerID)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// submitUploadRequest is the POST /api/v1/uploads body.
type submitUploadRequest struct {
	OwnerID string              `json:"owner_id" binding:"required"`
	Record  domain.UploadRecord `json:"record" binding:"required"`
}

func (s *Server) handleSubmitUpload(c *gin.Context) {
	var req submitUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.service.SubmitUpload(c.Request.Context(), req.OwnerID, req.Record); err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (s *Server) handleRecordEvaluation(c *gin.Context) {
	var report domain.EvaluationReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.service.RecordEvaluation(c.Request.Context(), report); err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "recorded"})
}

// renderError maps service errors onto HTTP statuses: bad input gets
// 4xx, everything else is a 500 with the detail kept in the logs.
func (s *Server) renderError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationErr.Error()})
	case errors.Is(err, analytics.ErrUnknownMode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
