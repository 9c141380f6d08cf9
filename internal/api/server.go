package api

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/screening-engine/internal/checkup"
	"github.com/screening-engine/internal/domain"
	"github.com/screening-engine/internal/middleware"
	"github.com/screening-engine/internal/monitoring"
	"github.com/screening-engine/internal/service"
)

const version = "1.0.0"

// Dependencies are the collaborators the HTTP layer serves. Metrics,
// Checkups and RateLimiter are optional.
type Dependencies struct {
	Service     *service.ScreeningService
	Metrics     *monitoring.Metrics
	Checkups    checkup.Store
	RateLimiter *middleware.RateLimiter
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	logger        *logrus.Logger
	deps          Dependencies
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, logger *logrus.Logger, deps Dependencies) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.New("evaluation").Funcs(template.FuncMap{
		// Reference anchors are escaped when rendered by the annotator.
		"safe": func(s string) template.HTML { return template.HTML(s) },
	}).Parse(evaluationTemplate)))

	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestLogger(logger))
	router.Use(corsMiddleware())
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}

	server := &Server{
		configManager: configManager,
		logger:        logger,
		deps:          deps,
		router:        router,
	}

	server.setupRoutes()

	return server
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLSEnabled {
			err = s.server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.logger.WithFields(logrus.Fields{
		"addr": addr,
		"tls":  cfg.TLSEnabled,
	}).Info("HTTP server listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.deps.Service.Wait()
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	if s.deps.RateLimiter != nil {
		v1.Use(s.deps.RateLimiter.Middleware())
	}
	{
		v1.POST("/evaluate", s.handleEvaluate)
		v1.POST("/evaluate/batch", s.handleEvaluateBatch)
		v1.GET("/rules", s.handleRules)
		v1.PUT("/patients/:id/statuses", s.handleSetStatus)
		v1.GET("/patients/:id/checkups", s.handleListCheckups)
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept, Accept-Encoding, Authorization, "+middleware.CorrelationIDHeader)
		c.Header("Access-Control-Expose-Headers", "Content-Length, "+middleware.CorrelationIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

const evaluationTemplate = `<section class="screening-evaluation" data-evaluation-id="{{.EvaluationID}}">
{{- with .Risk}}{{if .Success}}{{with .Classification}}
<p class="risk risk-{{.Level}}" data-color="{{.Color}}">{{.Category}}: {{.Description}}</p>
{{- end}}{{else}}
<p class="risk risk-unavailable">{{.Error}}</p>
{{- end}}{{end}}
<ul class="recommendations">
{{- range .Recommendations}}
<li class="priority-{{.Priority}}"><strong>{{.Title}}</strong>{{if .Description}} {{.Description}}{{end}}<span class="reference">{{safe .ReferenceHTML}}</span></li>
{{- end}}
</ul>
</section>
`
