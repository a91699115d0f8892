// Package mcpserver exposes layout analysis over the Model Context Protocol
// so that an LLM agent can turn detection results into a block tree, and
// look up earlier results, while it decides which element serves a task.
package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tsawler/uilayout/layout"
	"github.com/tsawler/uilayout/observability"
	"github.com/tsawler/uilayout/store"
)

// Name and Version identify the server to MCP clients
const (
	Name    = "uilayout-mcp"
	Version = "1.0.0"
)

// Server is the MCP server for layout analysis.
type Server struct {
	mcp      *server.MCPServer
	analyzer *layout.Analyzer
	archive  *store.Archive
	logger   observability.Logger
}

// Deps holds the collaborators of the server.
type Deps struct {
	// Analyzer runs the pipeline; nil means the default configuration
	Analyzer *layout.Analyzer

	// Archive stores analysed layouts; nil disables saving and lookup
	Archive *store.Archive

	Logger observability.Logger
}

// New creates and configures a new MCP server with all tools.
func New(deps Deps) *Server {
	s := &Server{
		analyzer: deps.Analyzer,
		archive:  deps.Archive,
		logger:   observability.OrNop(deps.Logger),
	}
	if s.analyzer == nil {
		s.analyzer = layout.NewAnalyzer()
	}

	s.mcp = server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
	)

	s.registerLayoutTools()
	if s.archive != nil {
		s.registerArchiveTools()
	}

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("[MCP] Starting stdio server")
	return server.ServeStdio(s.mcp)
}

// textResult creates a simple text tool result.
func textResult(texts ...string) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(texts))
	for _, t := range texts {
		content = append(content, mcp.TextContent{Type: "text", Text: t})
	}
	return &mcp.CallToolResult{Content: content}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
