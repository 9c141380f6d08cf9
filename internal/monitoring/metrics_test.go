package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screening-engine/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMetrics_ObserveEvaluation(t *testing.T) {
	m := NewMetrics()
	assert.Equal(t, "prometheus_metrics", m.Name())

	result := &domain.EvaluationResult{
		ID:       "eval-1",
		Risk:     &domain.RiskAssessment{Success: true, Category: domain.RISK_INTERMEDIATE},
		Duration: 2 * time.Millisecond,
		Recommendations: []domain.Recommendation{
			{Title: "Perfil lipídico", Category: domain.LAB, Priority: domain.HIGH},
			{Title: "Glicemia de jejum", Category: domain.LAB, Priority: domain.HIGH},
			{Title: "Influenza", Category: domain.VACCINE, Priority: domain.MEDIUM},
		},
	}

	require.NoError(t, m.ObserveEvaluation(context.Background(), result))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.evaluations.WithLabelValues("intermediate", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recommendations.WithLabelValues("lab", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recommendations.WithLabelValues("vaccine", "medium")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.riskFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetrics_RiskFailureAndCached(t *testing.T) {
	m := NewMetrics()

	result := &domain.EvaluationResult{
		ID:     "eval-2",
		Risk:   &domain.RiskAssessment{Success: false, Error: "missing"},
		Cached: true,
	}
	require.NoError(t, m.ObserveEvaluation(context.Background(), result))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.evaluations.WithLabelValues("none", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.riskFailures))
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	m := NewMetrics()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/health", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("unmatched", "GET", "404")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "screening_http_requests_total")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
