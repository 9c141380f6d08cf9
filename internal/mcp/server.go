// Package mcp exposes the screening engine as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/screening-engine/internal/checkup"
	"github.com/screening-engine/internal/domain"
	"github.com/screening-engine/internal/service"
)

// Server represents the screening MCP server
type Server struct {
	config    domain.MCPConfig
	service   *service.ScreeningService
	checkups  checkup.Store
	mcpServer *mcp.Server
	logger    *logrus.Logger
}

// ServerOption is a functional option for Server.
type ServerOption func(*Server)

// WithCheckupStore enables the checkup history tool.
func WithCheckupStore(store checkup.Store) ServerOption {
	return func(s *Server) {
		s.checkups = store
	}
}

// NewServer creates a new MCP server instance and registers its tools.
func NewServer(cfg domain.MCPConfig, svc *service.ScreeningService, logger *logrus.Logger, opts ...ServerOption) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("screening service is required")
	}
	if cfg.ServerName == "" {
		cfg.ServerName = "screening-engine"
	}
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "1.0.0"
	}
	if cfg.TransportType != "" && cfg.TransportType != "stdio" {
		return nil, fmt.Errorf("unsupported transport %q: only stdio is supported", cfg.TransportType)
	}

	server := &Server{
		config:  cfg,
		service: svc,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(server)
	}

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)

	server.registerTools()
	server.registerResources()
	server.registerPrompts()
	return server, nil
}

// Start runs the MCP server over stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"server_name":    s.config.ServerName,
		"server_version": s.config.ServerVersion,
		"tools":          s.ToolNames(),
	}).Info("Starting screening MCP server")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	s.service.Wait()
	return nil
}

// Close waits for in-flight evaluation observers. The checkup store is
// owned by the caller.
func (s *Server) Close() error {
	s.service.Wait()
	return nil
}

// ToolNames lists the registered tools.
func (s *Server) ToolNames() []string {
	names := []string{toolEvaluatePatient, toolListRules}
	if s.checkups != nil {
		names = append(names, toolPatientCheckups)
	}
	return names
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        toolEvaluatePatient,
		Description: "Evaluate a patient profile: estimates PREVENT 10/30-year cardiovascular risk and returns deduplicated preventive screening recommendations (labs, imaging, vaccines) with guideline references.",
	}, s.handleEvaluatePatient)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        toolListRules,
		Description: "List the screening rules the engine evaluates, with their family and whether they depend on the cardiovascular risk category.",
	}, s.handleListRules)

	if s.checkups != nil {
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        toolPatientCheckups,
			Description: "List previously recorded evaluations for a patient, newest first.",
		}, s.handlePatientCheckups)
	}

	s.logger.WithField("tool_count", len(s.ToolNames())).Info("Registered MCP tools")
}
