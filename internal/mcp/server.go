// Package mcp exposes ticket analysis as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"time"

	"ticket-insights/internal/jira"
	"ticket-insights/internal/pipeline"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const (
	serverName    = "ticket-insights"
	serverVersion = "0.1.0"

	defaultQueryLimit = 50
)

// Server holds the state shared by the tool handlers.
type Server struct {
	jira   jira.Client
	runner *pipeline.Runner
	now    func() time.Time
}

// NewServer creates a new MCP server. client may be nil, in which case only
// the offline tools succeed.
func NewServer(client jira.Client, runner *pipeline.Runner) *Server {
	return &Server{jira: client, runner: runner, now: time.Now}
}

// MCP builds the protocol server with every tool registered.
func (s *Server) MCP() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	s.registerTools(server)
	return server
}

// Serve runs the server on stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", serverVersion).Bool("tracker", s.jira != nil).Msg("Serving MCP over stdio")
	return s.MCP().Run(ctx, &mcp.StdioTransport{})
}
