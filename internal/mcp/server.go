// Package mcp exposes shieldctl's read-only analysis over the Model
// Context Protocol. Mutating operations (harden, revert) are
// deliberately not offered here.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/girste/shieldctl/internal/output"
	"github.com/girste/shieldctl/internal/systemd"
	"github.com/girste/shieldctl/internal/util"
)

// Server wraps an MCP stdio server over a service analyzer.
type Server struct {
	mcpServer *server.MCPServer
	analyzer  *systemd.Analyzer
}

// NewServer builds the MCP server and registers its tools.
func NewServer(analyzer *systemd.Analyzer) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer("shieldctl", util.Version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		analyzer: analyzer,
	}

	s.mcpServer.AddTool(
		mcp.NewTool("list_services",
			mcp.WithDescription("List all systemd service units on this host, active or not."),
		),
		s.handleListServices,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("analyze_service",
			mcp.WithDescription("Analyze the security exposure of one systemd service via systemd-analyze security."),
			mcp.WithString("service",
				mcp.Required(),
				mcp.Description("Unit name, e.g. nginx.service"),
			),
		),
		s.handleAnalyzeService,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("audit_services",
			mcp.WithDescription("Audit all services and report those with an exposure score at or above the threshold, worst first."),
			mcp.WithNumber("threshold",
				mcp.Description("Minimum exposure score to report (0-10, default 8.0)"),
			),
		),
		s.handleAuditServices,
	)

	return s
}

// Serve runs the stdio transport until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleListServices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	services := s.analyzer.ListServices(ctx)
	data, err := json.MarshalIndent(map[string]interface{}{
		"count":    len(services),
		"services": services,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleAnalyzeService(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	unit, err := request.RequireString("service")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	analysis := s.analyzer.Analyze(ctx, unit)
	if analysis == nil {
		return mcp.NewToolResultError("failed to analyze " + unit), nil
	}

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleAuditServices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threshold := request.GetFloat("threshold", 8.0)

	high := s.analyzer.HighExposure(ctx, threshold)
	report := output.NewAuditReport(threshold, high)

	data, err := report.JSON()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(data), nil
}
