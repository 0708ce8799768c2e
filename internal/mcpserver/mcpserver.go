// Package mcpserver exposes scoring and corpus fitting as MCP tools over
// stdio transport.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and registers the portent tools.
type Server struct {
	server *mcp.Server
}

// NewServer creates a new MCP server with all portent tools registered.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "portent",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds the scoring tools to the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "score_program",
		Description: describeScoreProgram(),
	}, handleScoreProgram)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fit_corpus",
		Description: describeFitCorpus(),
	}, handleFitCorpus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "show_corpus",
		Description: describeShowCorpus(),
	}, handleShowCorpus)
}
