// ABOUTME: CLI command that reports credential and storage readiness.
// ABOUTME: Exits non-zero when either is unusable.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show credential and storage readiness",
	Long: `Show whether provider credentials are configured and valid, and whether
the ledger store is reachable, along with row count and the latest date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		st := app.assembler.Status(ctx)
		if statusJSON {
			if err := printJSON(st); err != nil {
				return err
			}
		} else {
			check("Credentials configured", st.CredentialsConfigured, "")
			check("Credentials valid", st.CredentialsValid, "")
			check("Storage configured", st.StorageConfigured, cfg.GetBackend())
			check("Storage reachable", st.StorageReachable, st.StorageError)
			if st.StorageReachable {
				fmt.Printf("  Ledger:  %s\n", st.Ledger)
				fmt.Printf("  Objects: %d\n", st.Objects)
				fmt.Printf("  Rows:    %d\n", st.Rows)
				if st.LastDate != "" {
					fmt.Printf("  Latest:  %s\n", st.LastDate)
				}
			}
		}
		if !st.Healthy() {
			return errors.New("not ready")
		}
		return nil
	},
}

func check(label string, ok bool, detail string) {
	if detail != "" {
		detail = color.New(color.Faint).Sprintf(" (%s)", detail)
	}
	if ok {
		color.Green("✓ %s%s", label, detail)
	} else {
		color.Red("✗ %s%s", label, detail)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print status as JSON")
	rootCmd.AddCommand(statusCmd)
}
