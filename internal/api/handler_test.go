// ABOUTME: Tests for the HTTP boundary using httptest.
// ABOUTME: Backed by a fake gateway and the in-memory object store.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/wellness/internal/garmin"
	"github.com/harperreed/wellness/internal/ledger"
	"github.com/harperreed/wellness/internal/models"
	"github.com/harperreed/wellness/internal/report"
	"github.com/harperreed/wellness/internal/storage"
)

type stubGateway struct {
	err error
}

func (g stubGateway) FetchCategory(ctx context.Context, category models.Category, date time.Time) ([]byte, error) {
	if g.err != nil {
		return nil, g.err
	}
	if category == models.CategoryActivity {
		return []byte(`{"totalSteps":4321}`), nil
	}
	return nil, nil
}

type validCredentials struct{}

func (validCredentials) Valid() bool { return true }

func newTestHandler(gw garmin.Gateway, mem *storage.MemoryStore) (*Handler, *ledger.Store) {
	now := func() time.Time { return time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC) }
	var store *ledger.Store
	if mem != nil {
		store = ledger.NewStore(mem, "", 0)
	}
	a := report.New(report.Options{Gateway: gw, Credentials: validCredentials{}, Store: store, Now: now})
	return NewHandler(a, store), store
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStats(t *testing.T) {
	h, store := newTestHandler(stubGateway{}, storage.NewMemoryStore())

	rec := do(h, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rep report.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "2024-01-05", rep.Date)
	assert.Equal(t, 4321, rep.Record.Activity.Steps)
	assert.True(t, rep.Stored)
	assert.Len(t, store.ReadAll(context.Background()), 1)
}

func TestStatsSessionExpired(t *testing.T) {
	h, _ := newTestHandler(stubGateway{err: garmin.ErrSessionExpired}, storage.NewMemoryStore())

	rec := do(h, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}

func TestStatsWriteFailureStillReturnsReport(t *testing.T) {
	mem := storage.NewMemoryStore()
	mem.Fail = func(op string) error {
		if op == "put" {
			return errors.New("quota exceeded")
		}
		return nil
	}
	h, _ := newTestHandler(stubGateway{}, mem)

	rec := do(h, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body struct {
		Error  string        `json:"error"`
		Report report.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "quota exceeded")
	assert.Equal(t, 4321, body.Report.Record.Activity.Steps)
}

func TestWaist(t *testing.T) {
	h, store := newTestHandler(stubGateway{}, storage.NewMemoryStore())

	rec := do(h, http.MethodPost, "/api/waist", `{"inches": 33.5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"inches":33.5`)

	records := store.ReadAll(context.Background())
	require.Len(t, records, 1)
	assert.Equal(t, 33.5, records[0].Waist.Inches)
}

func TestWaistRejectsBadInput(t *testing.T) {
	h, _ := newTestHandler(stubGateway{}, storage.NewMemoryStore())

	tests := []struct {
		name string
		body string
	}{
		{"not json", "thirty"},
		{"zero", `{"inches": 0}`},
		{"negative", `{"inches": -2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/api/waist", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestWaistWithoutStorage(t *testing.T) {
	h, _ := newTestHandler(stubGateway{}, nil)

	rec := do(h, http.MethodPost, "/api/waist", `{"inches": 33}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExport(t *testing.T) {
	h, store := newTestHandler(stubGateway{}, storage.NewMemoryStore())
	_, err := store.Upsert(context.Background(), &models.DailyRecord{Date: "2024-01-04", Activity: models.Activity{Steps: 12}})
	require.NoError(t, err)

	rec := do(h, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=garmin_health_data.csv", rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "date,steps,"))
	assert.Contains(t, rec.Body.String(), "2024-01-04,12,")

	rec = do(h, http.MethodGet, "/api/export?format=json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=garmin_health_data.json", rec.Header().Get("Content-Disposition"))
	var rows []models.DailyRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 12, rows[0].Activity.Steps)

	rec = do(h, http.MethodGet, "/api/export?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportWithoutStorage(t *testing.T) {
	h, _ := newTestHandler(stubGateway{}, nil)
	rec := do(h, http.MethodGet, "/api/export", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	mem := storage.NewMemoryStore()
	h, _ := newTestHandler(stubGateway{}, mem)

	rec := do(h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"storageReachable":true`)

	mem.Fail = func(string) error { return errors.New("down") }
	rec = do(h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsAndRouting(t *testing.T) {
	h, _ := newTestHandler(stubGateway{}, storage.NewMemoryStore())
	do(h, http.MethodGet, "/api/health", "")

	rec := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wellness_http_request_duration_seconds")

	rec = do(h, http.MethodDelete, "/api/stats", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "ledger.csv", exportFilename("ledger.csv", ledger.FormatCSV))
	assert.Equal(t, "ledger.yaml", exportFilename("ledger.csv", ledger.FormatYAML))
	assert.Equal(t, "ledger.json", exportFilename("ledger", ledger.FormatJSON))
}
