// Package mcp provides an MCP (Model Context Protocol) server that lets an
// agent drive a simulation: step it, inspect it, reset it and read the
// completed summary.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/firstmover/internal/driver"
	"github.com/nvandessel/firstmover/internal/logging"
	"github.com/nvandessel/firstmover/internal/ratelimit"
)

// Server wraps the MCP SDK server around a simulation driver.
type Server struct {
	server       *sdk.Server
	driver       *driver.Driver
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string         // Server name (e.g., "firstmover")
	Version string         // Server version
	Driver  *driver.Driver // Simulation to expose
	Logger  *slog.Logger   // Operational logger; discarded when nil

	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir string
}

// NewServer creates a new MCP server with the simulation tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Driver == nil {
		return nil, errors.New("mcp: driver is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		driver:       cfg.Driver,
		toolLimiters: ratelimit.NewToolLimiters(),
		logger:       logger,
	}
	if cfg.AuditDir != "" {
		s.auditLogger = NewAuditLogger(cfg.AuditDir)
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	_ = s.Close()
	return err
}

// Close releases the audit log.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
