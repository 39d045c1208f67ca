// ABOUTME: MCP server setup for the wellness ledger.
// ABOUTME: Wraps the MCP server with the report assembler and ledger store.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/wellness/internal/ledger"
	"github.com/harperreed/wellness/internal/report"
)

// Server wraps the MCP server with assembler and ledger access.
type Server struct {
	mcpServer *mcp.Server
	assembler *report.Assembler
	store     *ledger.Store
}

// NewServer creates a new MCP server. store may be nil when storage is disabled.
func NewServer(assembler *report.Assembler, store *ledger.Store) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "wellness",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		assembler: assembler,
		store:     store,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
