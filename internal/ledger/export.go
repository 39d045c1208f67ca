// ABOUTME: Ledger export as the stored CSV file, JSON, or YAML.
// ABOUTME: Unknown formats are rejected before anything is read.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harperreed/wellness/internal/models"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ContentType returns the MIME type for an export format.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/csv"
	}
}

// ParseFormat normalizes a format name. Empty means CSV.
func ParseFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use csv, json, or yaml)", format)
	}
}

// Marshal renders records in the given format.
func Marshal(records []*models.DailyRecord, format string) ([]byte, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	sorted := SortByDate(records)
	switch f {
	case FormatJSON:
		if sorted == nil {
			sorted = []*models.DailyRecord{}
		}
		return json.MarshalIndent(sorted, "", "  ")
	case FormatYAML:
		return yaml.Marshal(sorted)
	default:
		return Encode(sorted)
	}
}

// Export reads the ledger and renders it. Unlike ReadAll, read failures are returned.
func (s *Store) Export(ctx context.Context, format string) ([]byte, error) {
	if _, err := ParseFormat(format); err != nil {
		return nil, err
	}
	snap, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return Marshal(snap.records, format)
}
