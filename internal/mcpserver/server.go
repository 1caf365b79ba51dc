// Package mcpserver exposes the ripple engine as MCP tools.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/warxhead1/ripple"
)

// Name and Version identify the server to MCP clients.
const (
	Name    = "ripple"
	Version = "0.1.0"
)

// Server wires an Engine to an MCP server.
type Server struct {
	engine *ripple.Engine
	server *mcp.Server
	logger *slog.Logger
}

// New creates a Server with every tool registered. A nil logger discards
// output.
func New(engine *ripple.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		engine: engine,
		logger: logger,
		server: mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server, e.g. to connect a custom transport.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves over stdin/stdout until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
