// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Covers NewServer, tool handlers, and resource handlers.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/wellness/internal/ledger"
	"github.com/harperreed/wellness/internal/models"
	"github.com/harperreed/wellness/internal/report"
	"github.com/harperreed/wellness/internal/storage"
)

type stubGateway struct{}

func (stubGateway) FetchCategory(ctx context.Context, category models.Category, date time.Time) ([]byte, error) {
	switch category {
	case models.CategoryActivity:
		return []byte(`{"totalSteps":2500}`), nil
	case models.CategoryBodyComposition:
		return nil, errors.New("scale offline")
	}
	return nil, nil
}

// setupTestServer creates a server over an in-memory ledger.
func setupTestServer(t *testing.T) (*Server, *ledger.Store, *storage.MemoryStore) {
	t.Helper()

	mem := storage.NewMemoryStore()
	store := ledger.NewStore(mem, "", 0)
	a := report.New(report.Options{
		Gateway: stubGateway{},
		Store:   store,
		Now:     func() time.Time { return time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC) },
	})

	server, err := NewServer(a, store)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server, store, mem
}

func seed(t *testing.T, store *ledger.Store, dates ...string) {
	t.Helper()
	for i, d := range dates {
		row := &models.DailyRecord{Date: d, Activity: models.Activity{Steps: 1000 * (i + 1)}}
		if _, err := store.Upsert(context.Background(), row); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}
}

func TestNewServer(t *testing.T) {
	server, _, _ := setupTestServer(t)

	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.assembler == nil {
		t.Error("Expected non-nil assembler")
	}
	if server.store == nil {
		t.Error("Expected non-nil store")
	}
}

func TestHandleGetTodayStats(t *testing.T) {
	server, store, _ := setupTestServer(t)
	ctx := context.Background()

	_, output, err := server.handleGetTodayStats(ctx, &mcp.CallToolRequest{}, emptyInput{})
	if err != nil {
		t.Fatalf("handleGetTodayStats failed: %v", err)
	}
	if output.Report.Record.Activity.Steps != 2500 {
		t.Errorf("Steps = %d, want 2500", output.Report.Record.Activity.Steps)
	}
	if output.Warning != "" {
		t.Errorf("Unexpected warning: %s", output.Warning)
	}
	if len(output.Report.Unavailable) != 1 || output.Report.Unavailable[0] != models.CategoryBodyComposition {
		t.Errorf("Unavailable = %v, want [body_composition]", output.Report.Unavailable)
	}
	if rows := store.ReadAll(ctx); len(rows) != 1 {
		t.Errorf("Expected 1 ledger row, got %d", len(rows))
	}
}

func TestHandleGetTodayStatsWriteFailure(t *testing.T) {
	server, _, mem := setupTestServer(t)
	mem.Fail = func(op string) error {
		if op == "put" {
			return errors.New("disk full")
		}
		return nil
	}

	_, output, err := server.handleGetTodayStats(context.Background(), &mcp.CallToolRequest{}, emptyInput{})
	if err != nil {
		t.Fatalf("write failures should surface as a warning, got error: %v", err)
	}
	if !strings.Contains(output.Warning, "disk full") {
		t.Errorf("Warning = %q, want it to mention the write failure", output.Warning)
	}
	if output.Report.Stored {
		t.Error("Expected Stored = false")
	}
}

func TestHandleRecordWaist(t *testing.T) {
	server, store, _ := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		inches  float64
		wantErr bool
	}{
		{name: "valid", inches: 33.5},
		{name: "zero", inches: 0, wantErr: true},
		{name: "negative", inches: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output, err := server.handleRecordWaist(ctx, &mcp.CallToolRequest{}, recordWaistInput{Inches: tt.inches})
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if output.Date != "2024-01-05" || output.Inches != tt.inches {
				t.Errorf("output = %+v", output)
			}
		})
	}

	rows := store.ReadAll(ctx)
	if len(rows) != 1 || rows[0].Waist.Inches != 33.5 {
		t.Errorf("Expected waist 33.5 stored, got %+v", rows)
	}
}

func TestHandleListLedger(t *testing.T) {
	server, store, _ := setupTestServer(t)
	ctx := context.Background()
	seed(t, store, "2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04")

	tests := []struct {
		name      string
		input     listLedgerInput
		wantDates []string
		wantErr   bool
	}{
		{name: "default", input: listLedgerInput{}, wantDates: []string{"2024-01-04", "2024-01-03", "2024-01-02", "2024-01-01"}},
		{name: "limit", input: listLedgerInput{Limit: 2}, wantDates: []string{"2024-01-04", "2024-01-03"}},
		{name: "since", input: listLedgerInput{Since: "2024-01-03"}, wantDates: []string{"2024-01-04", "2024-01-03"}},
		{name: "bad since", input: listLedgerInput{Since: "yesterday"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output, err := server.handleListLedger(ctx, &mcp.CallToolRequest{}, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if output.Count != len(tt.wantDates) {
				t.Fatalf("Count = %d, want %d", output.Count, len(tt.wantDates))
			}
			for i, d := range tt.wantDates {
				if output.Rows[i].Date != d {
					t.Errorf("Rows[%d].Date = %s, want %s", i, output.Rows[i].Date, d)
				}
			}
		})
	}
}

func TestHandleLedgerStatus(t *testing.T) {
	server, store, _ := setupTestServer(t)
	seed(t, store, "2024-01-01", "2024-01-02")

	_, st, err := server.handleLedgerStatus(context.Background(), &mcp.CallToolRequest{}, emptyInput{})
	if err != nil {
		t.Fatalf("handleLedgerStatus failed: %v", err)
	}
	if !st.StorageReachable || st.Rows != 2 || st.LastDate != "2024-01-02" {
		t.Errorf("status = %+v", st)
	}
	if st.CredentialsConfigured {
		t.Error("Expected no credentials configured")
	}
}

func TestHandleLedgerResource(t *testing.T) {
	server, store, _ := setupTestServer(t)
	seed(t, store, "2024-01-01")

	result, err := server.handleLedgerResource(context.Background(), &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handleLedgerResource failed: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("Expected 1 content, got %d", len(result.Contents))
	}
	text := result.Contents[0].Text
	if !strings.HasPrefix(text, "date,steps,") || !strings.Contains(text, "2024-01-01,1000,") {
		t.Errorf("Unexpected ledger CSV: %s", text)
	}
}

func TestHandleLatestResource(t *testing.T) {
	server, store, _ := setupTestServer(t)
	ctx := context.Background()

	result, err := server.handleLatestResource(ctx, &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handleLatestResource failed: %v", err)
	}
	if !strings.Contains(result.Contents[0].Text, "Ledger is empty") {
		t.Errorf("Expected empty message, got %s", result.Contents[0].Text)
	}

	seed(t, store, "2024-01-01", "2024-01-02")
	result, err = server.handleLatestResource(ctx, &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handleLatestResource failed: %v", err)
	}

	var latest models.DailyRecord
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &latest); err != nil {
		t.Fatalf("Failed to parse latest: %v", err)
	}
	if latest.Date != "2024-01-02" || latest.Activity.Steps != 2000 {
		t.Errorf("latest = %+v", latest)
	}
}

func TestResourcesWithoutStorage(t *testing.T) {
	server, err := NewServer(report.New(report.Options{}), nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	if _, err := server.handleLedgerResource(context.Background(), &mcp.ReadResourceRequest{}); !errors.Is(err, report.ErrStorageDisabled) {
		t.Errorf("Expected ErrStorageDisabled, got %v", err)
	}
	if _, _, err := server.handleListLedger(context.Background(), &mcp.CallToolRequest{}, listLedgerInput{}); !errors.Is(err, report.ErrStorageDisabled) {
		t.Errorf("Expected ErrStorageDisabled, got %v", err)
	}
}
