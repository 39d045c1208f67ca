// ABOUTME: Integration tests for wellness CLI.
// ABOUTME: Builds the binary and runs sync, waist, list, and export against a fake provider.
package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer integration-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/usersummary-service/") {
			_, _ = w.Write([]byte(`{"totalSteps":10432,"restingHeartRate":52}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFullWorkflow(t *testing.T) {
	// Build the binary
	projectRoot, _ := filepath.Abs("..")
	binary := filepath.Join(t.TempDir(), "wellness")

	buildCmd := exec.Command("go", "build", "-o", binary, "./cmd/wellness")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}

	provider := fakeProvider(t)
	tmpDir := t.TempDir()
	env := append(os.Environ(),
		"XDG_CONFIG_HOME="+filepath.Join(tmpDir, "config"),
		"WELLNESS_BACKEND=sqlite",
		"WELLNESS_DATA_DIR="+filepath.Join(tmpDir, "data"),
		"WELLNESS_API_BASE_URL="+provider.URL,
		"WELLNESS_DISPLAY_NAME=tester",
		"WELLNESS_TIMEZONE=UTC",
		"WELLNESS_LOG_LEVEL=error",
		`GARMIN_TOKENS={"access_token":"integration-token","expires_at":4102444800}`,
	)

	run := func(args ...string) (string, error) {
		cmd := exec.Command(binary, args...)
		cmd.Env = env
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	output, err := run("waist", "33.5")
	if err != nil {
		t.Fatalf("Failed to record waist: %v\n%s", err, output)
	}
	if !strings.Contains(output, "33.50 in recorded") {
		t.Errorf("Expected waist confirmation, got: %s", output)
	}

	output, err = run("sync")
	if err != nil {
		t.Fatalf("Failed to sync: %v\n%s", err, output)
	}
	if !strings.Contains(output, "10432") {
		t.Errorf("Expected step count in sync output, got: %s", output)
	}
	if !strings.Contains(output, "Ledger updated") {
		t.Errorf("Expected 'Ledger updated' in sync output, got: %s", output)
	}

	output, err = run("ledger", "list")
	if err != nil {
		t.Fatalf("Failed to list: %v\n%s", err, output)
	}
	if !strings.Contains(output, "10432") || !strings.Contains(output, "33.5") {
		t.Errorf("Expected steps and waist in list output, got: %s", output)
	}

	output, err = run("export", "json")
	if err != nil {
		t.Fatalf("Failed to export: %v\n%s", err, output)
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal([]byte(output), &rows); err != nil {
		t.Fatalf("export json is not a JSON array: %v\n%s", err, output)
	}
	if len(rows) != 1 {
		t.Errorf("Expected exactly one ledger row, got %d", len(rows))
	}

	output, err = run("status")
	if err != nil {
		t.Fatalf("Expected ready status: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Rows:    1") {
		t.Errorf("Expected one row in status output, got: %s", output)
	}
}
