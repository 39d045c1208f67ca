// ABOUTME: MCP tool implementations for the wellness ledger.
// ABOUTME: Fetch today's stats, record waist, list ledger rows, and report status.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/wellness/internal/models"
	"github.com/harperreed/wellness/internal/report"
)

func (s *Server) registerTools() {
	// get_today_stats
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_today_stats",
		Description: "Fetch today's wellness metrics from the provider, update the ledger, and return the day's record",
	}, s.handleGetTodayStats)

	// record_waist
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_waist",
		Description: "Record today's waist measurement in inches",
	}, s.handleRecordWaist)

	// list_ledger
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_ledger",
		Description: "List daily ledger rows, newest first, optionally since a date",
	}, s.handleListLedger)

	// ledger_status
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ledger_status",
		Description: "Report whether provider credentials and ledger storage are usable",
	}, s.handleLedgerStatus)
}

// Tool input/output types

type emptyInput struct{}

type todayOutput struct {
	Report  *report.Report `json:"report"`
	Warning string         `json:"warning,omitempty"`
}

type recordWaistInput struct {
	Inches float64 `json:"inches" jsonschema:"Waist circumference in inches"`
}

type waistOutput struct {
	Date    string  `json:"date"`
	Inches  float64 `json:"inches"`
	Message string  `json:"message"`
}

type listLedgerInput struct {
	Since string `json:"since,omitempty" jsonschema:"Only rows on or after this date (YYYY-MM-DD)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max rows (default 14)"`
}

type ledgerOutput struct {
	Rows  []*models.DailyRecord `json:"rows"`
	Count int                   `json:"count"`
}

// Tool handlers

func (s *Server) handleGetTodayStats(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, todayOutput, error) {
	rep, err := s.assembler.Build(ctx)
	if rep == nil {
		return nil, todayOutput{}, fmt.Errorf("failed to build today's stats: %w", err)
	}
	out := todayOutput{Report: rep}
	if err != nil {
		out.Warning = err.Error()
	}
	return nil, out, nil
}

func (s *Server) handleRecordWaist(ctx context.Context, req *mcp.CallToolRequest, input recordWaistInput) (*mcp.CallToolResult, waistOutput, error) {
	row, err := s.assembler.RecordWaist(ctx, input.Inches)
	if err != nil {
		return nil, waistOutput{}, fmt.Errorf("failed to record waist: %w", err)
	}

	return nil, waistOutput{
		Date:    row.Date,
		Inches:  row.Waist.Inches,
		Message: fmt.Sprintf("Recorded waist: %.2f in on %s", row.Waist.Inches, row.Date),
	}, nil
}

func (s *Server) handleListLedger(ctx context.Context, req *mcp.CallToolRequest, input listLedgerInput) (*mcp.CallToolResult, ledgerOutput, error) {
	if s.store == nil {
		return nil, ledgerOutput{}, report.ErrStorageDisabled
	}
	if input.Limit <= 0 {
		input.Limit = 14
	}
	if input.Since != "" {
		if _, err := time.Parse(models.DateLayout, input.Since); err != nil {
			return nil, ledgerOutput{}, errors.New("since must be a date like 2024-01-31")
		}
	}

	records := s.store.ReadAll(ctx)
	rows := make([]*models.DailyRecord, 0, input.Limit)
	for i := len(records) - 1; i >= 0 && len(rows) < input.Limit; i-- {
		if input.Since != "" && records[i].Date < input.Since {
			break
		}
		rows = append(rows, records[i])
	}

	return nil, ledgerOutput{Rows: rows, Count: len(rows)}, nil
}

func (s *Server) handleLedgerStatus(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, report.Status, error) {
	return nil, s.assembler.Status(ctx), nil
}
