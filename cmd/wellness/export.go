// ABOUTME: CLI command for exporting the ledger.
// ABOUTME: Supports CSV, JSON, and YAML formats.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/wellness/internal/ledger"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [format]",
	Short: "Export the ledger",
	Long: `Export the ledger in various formats.

FORMATS:

  csv    The ledger flat file as stored (default)
  json   Array of daily records
  yaml   Array of daily records, human-readable

OPTIONS:

  --output, -o   Write to file instead of stdout

EXAMPLES:

  wellness export                       # CSV to stdout
  wellness export json -o ledger.json   # Save JSON to a file
  wellness export yaml`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{ledger.FormatCSV, ledger.FormatJSON, ledger.FormatYAML},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := ""
		if len(args) == 1 {
			format = args[0]
		}
		format, err := ledger.ParseFormat(format)
		if err != nil {
			return err
		}
		store, err := app.requireStore()
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()

		data, err := store.Export(ctx, format)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(exportOutput, data, 0600); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		color.Green("✓ Exported to %s", exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}
