// Package monitoring exposes evaluation and HTTP metrics in Prometheus format.
package monitoring

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/screening-engine/internal/domain"
)

const namespace = "screening"

// Metrics collects evaluation analytics and implements
// domain.EvaluationObserver. Each instance owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	evaluations     *prometheus.CounterVec
	recommendations *prometheus.CounterVec
	riskFailures    prometheus.Counter
	duration        prometheus.Histogram
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Evaluations completed, by risk category and cache outcome.",
		}, []string{"risk_category", "cached"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendations issued, by category and priority.",
		}, []string{"category", "priority"}),
		riskFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_estimation_failures_total",
			Help:      "Evaluations where the cardiovascular risk could not be estimated.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent running the evaluation pipeline.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.evaluations,
		m.recommendations,
		m.riskFailures,
		m.duration,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Name implements domain.EvaluationObserver.
func (m *Metrics) Name() string {
	return "prometheus_metrics"
}

// ObserveEvaluation implements domain.EvaluationObserver.
func (m *Metrics) ObserveEvaluation(_ context.Context, result *domain.EvaluationResult) error {
	category := "none"
	if result.Risk != nil && result.Risk.Success {
		category = string(result.Risk.Category)
	} else {
		m.riskFailures.Inc()
	}

	m.evaluations.WithLabelValues(category, strconv.FormatBool(result.Cached)).Inc()
	if !result.Cached {
		m.duration.Observe(result.Duration.Seconds())
	}

	for _, r := range result.Recommendations {
		m.recommendations.WithLabelValues(string(r.Category), string(r.Priority)).Inc()
	}
	return nil
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
