package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/screening-engine/internal/api"
	"github.com/screening-engine/internal/bootstrap"
	"github.com/screening-engine/internal/config"
	"github.com/screening-engine/internal/middleware"
)

func main() {
	// A missing .env is fine
	_ = godotenv.Load()

	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := config.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	logger.Infof("Starting screening engine on %s:%d", cfg.Server.Host, cfg.Server.Port)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stack, err := bootstrap.NewServerStack(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to assemble screening service: %v", err)
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logger.WithError(err).Error("Failed to release resources")
		}
	}()

	deps := api.Dependencies{
		Service:  stack.Service,
		Metrics:  stack.Metrics,
		Checkups: stack.Checkups,
	}
	if cfg.RateLimit.Enabled {
		deps.RateLimiter = middleware.NewRateLimiter(logger, cfg.RateLimit)
		go sweepLimiters(ctx, deps.RateLimiter)
	}

	// Create server
	server := api.NewServer(configManager, logger, deps)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server failed")
		return
	}

	logger.Info("Server stopped")
}

func sweepLimiters(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Cleanup()
		}
	}
}
