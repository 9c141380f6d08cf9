package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/screening-engine/internal/checkup"
	"github.com/screening-engine/internal/domain"
	"github.com/screening-engine/internal/service"
)

const (
	defaultCheckupLimit = 20
	maxCheckupLimit     = 200
)

// BatchRequest is the body of POST /api/v1/evaluate/batch.
type BatchRequest struct {
	Patients []map[string]any `json:"patients" binding:"required"`
}

// BatchItemResponse is one entry of a batch response.
type BatchItemResponse struct {
	Index  int                         `json:"index"`
	Result *service.EvaluationResponse `json:"result,omitempty"`
	Error  *domain.APIError            `json:"error,omitempty"`
}

// StatusRequest sets a workflow status. The recommendation is addressed
// either by its identity key or by title, category and reference.
type StatusRequest struct {
	RecommendationKey string `json:"recommendation_key"`
	Title             string `json:"title"`
	Category          string `json:"category"`
	Reference         string `json:"reference"`
	Status            string `json:"status"`
}

func (r StatusRequest) key() (string, error) {
	if r.RecommendationKey != "" {
		return r.RecommendationKey, nil
	}
	if strings.TrimSpace(r.Title) == "" {
		return "", domain.NewValidationError("title", "recommendation_key or title is required", r.Title)
	}
	category := domain.RecommendationCategory(strings.ToLower(strings.TrimSpace(r.Category)))
	if !category.IsValid() {
		return "", domain.NewValidationError("category", "category must be one of lab, imaging, vaccine", r.Category)
	}
	return domain.StrictKey(r.Title, category, r.Reference), nil
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":            "healthy",
		"timestamp":         time.Now().UTC(),
		"version":           version,
		"rules":             len(s.deps.Service.Rules()),
		"status_repository": s.deps.Service.StatusEnabled(),
		"checkup_store":     s.deps.Checkups != nil,
	}
	if stats, ok := s.deps.Service.CacheStats(); ok {
		body["cache"] = stats
	}
	c.JSON(http.StatusOK, body)
}

// handleEvaluate runs one evaluation. ?collapse=title merges by title only;
// Accept: text/html renders an HTML fragment instead of JSON.
func (s *Server) handleEvaluate(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "request body must be a JSON object", err.Error())
		return
	}

	opts := service.RequestOptions{
		PatientID:       c.Query("patient_id"),
		CollapseByTitle: collapseByTitle(c),
	}

	result, err := s.deps.Service.Evaluate(c.Request.Context(), raw, opts)
	if err != nil {
		s.respondEvaluationError(c, err)
		return
	}

	resp := service.ShapeResponse(result)
	if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
		c.HTML(http.StatusOK, "evaluation", resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleEvaluateBatch evaluates several patients. Entries fail independently.
func (s *Server) handleEvaluateBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "request body must contain a patients array", err.Error())
		return
	}

	items, err := s.deps.Service.EvaluateBatch(c.Request.Context(), req.Patients, service.RequestOptions{
		CollapseByTitle: collapseByTitle(c),
	})
	if errors.Is(err, service.ErrBatchTooLarge) {
		s.respondError(c, http.StatusRequestEntityTooLarge, domain.ErrInvalidInput, "batch too large", err.Error())
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "batch evaluation failed", err.Error())
		return
	}

	requestID := c.GetString("correlation_id")
	results := make([]BatchItemResponse, 0, len(items))
	failed := 0
	for _, item := range items {
		entry := BatchItemResponse{Index: item.Index}
		if item.Error != nil {
			failed++
			entry.Error = toAPIError(item.Error, requestID)
		} else {
			entry.Result = service.ShapeResponse(item.Result)
		}
		results = append(results, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"results":   results,
		"total":     len(results),
		"succeeded": len(results) - failed,
		"failed":    failed,
	})
}

// handleRules lists the registered screening rules.
func (s *Server) handleRules(c *gin.Context) {
	rules := s.deps.Service.Rules()
	c.JSON(http.StatusOK, gin.H{
		"rules": rules,
		"count": len(rules),
	})
}

// handleSetStatus records a workflow status for one recommendation.
func (s *Server) handleSetStatus(c *gin.Context) {
	if !s.deps.Service.StatusEnabled() {
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrStatusUnavailable, "status repository not configured", "")
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "invalid status request", err.Error())
		return
	}

	patientID := c.Param("id")
	key, err := req.key()
	if err != nil {
		s.respondEvaluationError(c, err)
		return
	}

	if err := s.deps.Service.SetStatus(c.Request.Context(), patientID, key, req.Status); err != nil {
		s.respondEvaluationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_id":         patientID,
		"recommendation_key": key,
		"status":             req.Status,
	})
}

// handleListCheckups returns a patient's recorded evaluations, newest first.
func (s *Server) handleListCheckups(c *gin.Context) {
	if s.deps.Checkups == nil {
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrStore, "checkup store not configured", "")
		return
	}

	limit := defaultCheckupLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "limit must be a positive integer", raw)
			return
		}
		limit = min(n, maxCheckupLimit)
	}

	checkups, err := s.deps.Checkups.ListByPatient(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		s.logger.WithError(err).WithField("patient_id", c.Param("id")).Error("Failed to list checkups")
		s.respondError(c, http.StatusInternalServerError, domain.ErrStore, "failed to list checkups", "")
		return
	}
	if checkups == nil {
		checkups = []*checkup.Checkup{}
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_id": c.Param("id"),
		"checkups":   checkups,
		"count":      len(checkups),
	})
}

func collapseByTitle(c *gin.Context) bool {
	return strings.EqualFold(c.Query("collapse"), "title")
}

// respondEvaluationError maps service errors onto HTTP statuses.
func (s *Server) respondEvaluationError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, toAPIError(err, c.GetString("correlation_id")))
	case errors.Is(err, service.ErrStatusUnsupported):
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrStatusUnavailable, "status repository not configured", "")
	default:
		s.logger.WithFields(logrus.Fields{
			"path":           c.Request.URL.Path,
			"correlation_id": c.GetString("correlation_id"),
			"error":          err,
		}).Error("Request failed")
		s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "internal server error", "")
	}
}

func (s *Server) respondError(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, domain.NewAPIError(code, message, details, c.GetString("correlation_id")))
}

// toAPIError converts an evaluation error into the wire error shape.
func toAPIError(err error, requestID string) *domain.APIError {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return domain.NewAPIError(domain.ErrValidation, verr.Message, verr.Field, requestID)
	}
	return domain.NewAPIError(domain.ErrInternalServer, "evaluation failed", "", requestID)
}
