// ABOUTME: MCP resource implementations for the wellness ledger.
// ABOUTME: Provides wellness://ledger (CSV) and wellness://latest (JSON) resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/wellness/internal/ledger"
	"github.com/harperreed/wellness/internal/report"
)

const (
	ledgerURI = "wellness://ledger"
	latestURI = "wellness://latest"
)

func (s *Server) registerResources() {
	// wellness://ledger - the whole ledger flat file
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         ledgerURI,
		Name:        "Wellness Ledger",
		Description: "Every daily record as the stored CSV file",
		MIMEType:    "text/csv",
	}, s.handleLedgerResource)

	// wellness://latest - most recent row
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         latestURI,
		Name:        "Latest Daily Record",
		Description: "The most recent ledger row",
		MIMEType:    "application/json",
	}, s.handleLatestResource)
}

// Resource handlers

func (s *Server) handleLedgerResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if s.store == nil {
		return nil, report.ErrStorageDisabled
	}
	data, err := s.store.Export(ctx, ledger.FormatCSV)
	if err != nil {
		return nil, fmt.Errorf("failed to export ledger: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      ledgerURI,
			MIMEType: "text/csv",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) handleLatestResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if s.store == nil {
		return nil, report.ErrStorageDisabled
	}

	var result interface{} = map[string]string{"message": "Ledger is empty."}
	if latest, ok := s.store.Latest(ctx); ok {
		result = latest
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      latestURI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
