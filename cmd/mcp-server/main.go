// Package main runs the screening engine as an MCP server over stdio. It
// needs no external services: results are cached in memory and checkups
// are recorded to SQLite under SCREENING_DATA_DIR.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/screening-engine/internal/bootstrap"
	"github.com/screening-engine/internal/config"
	"github.com/screening-engine/internal/domain"
	"github.com/screening-engine/internal/mcp"
)

func main() {
	_ = godotenv.Load()

	// Load lightweight configuration
	cfg := config.LoadLiteConfig()

	// stdout carries the protocol
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat, "stderr")
	logger.WithField("data_dir", cfg.DataDir).Info("Starting screening MCP server")

	stack, err := bootstrap.NewLiteStack(cfg, logger, cfg.RecordCheckups)
	if err != nil {
		log.Fatalf("Failed to assemble screening service: %v", err)
	}
	defer stack.Close()

	server, err := mcp.NewServer(domain.MCPConfig{TransportType: cfg.Transport}, stack.Service, logger,
		mcp.WithCheckupStore(stack.Checkups))
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("Screening MCP server stopped")
}
