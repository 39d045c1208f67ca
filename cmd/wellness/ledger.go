// ABOUTME: CLI commands for inspecting and maintaining the ledger.
// ABOUTME: Lists recent rows, stored object versions, and removes stale duplicates.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/wellness/internal/report"
	"github.com/harperreed/wellness/internal/storage"
)

var (
	ledgerLimit   int
	ledgerObjects bool
)

var ledgerCmd = &cobra.Command{
	Use:     "ledger",
	Aliases: []string{"l"},
	Short:   "Inspect and maintain the ledger",
	Long: `Inspect and maintain the ledger.

COMMANDS:

  list      Show recent rows (newest first)
  cleanup   Delete every stored version except the newest
  migrate   Copy the ledger to another backend`,
}

var ledgerListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show recent ledger rows",
	Long: `Show recent ledger rows, newest first.

OUTPUT FORMAT:

  DATE  STEPS  SLEEP  RHR  HRV  BB  WEIGHT  WAIST

Use --objects to list the stored versions of the ledger file instead.

EXAMPLES:

  wellness ledger list
  wellness ledger list -n 30
  wellness ledger list --objects`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := app.requireStore()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		faint := color.New(color.Faint)

		if ledgerObjects {
			objects, err := store.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list objects: %w", err)
			}
			if len(objects) == 0 {
				fmt.Println("No ledger objects found.")
				return nil
			}
			for _, o := range objects {
				fmt.Printf("%s %s %s %d bytes\n",
					faint.Sprint(truncate(o.Handle, 12)),
					faint.Sprint(o.CreatedAt.Local().Format("2006-01-02 15:04:05")),
					padRight(o.Name, 24),
					o.Size)
			}
			return nil
		}

		records := store.ReadAll(ctx)
		if len(records) == 0 {
			fmt.Println("No rows found.")
			return nil
		}

		fmt.Println(faint.Sprint(strings.Join([]string{
			padRight("DATE", 11), padRight("STEPS", 7), padRight("SLEEP", 6),
			padRight("RHR", 4), padRight("HRV", 4), padRight("BB", 4),
			padRight("WEIGHT", 7), "WAIST",
		}, " ")))
		shown := 0
		for i := len(records) - 1; i >= 0 && (ledgerLimit <= 0 || shown < ledgerLimit); i-- {
			r := records[i]
			fmt.Printf("%s %s %s %s %s %s %s %s\n",
				padRight(r.Date, 11),
				padRight(cell(r.Activity.Steps), 7),
				padRight(cell(r.Sleep.OverallScore), 6),
				padRight(cell(r.Activity.RestingHeartRate), 4),
				padRight(cell(r.HRV.LastNightAvg), 4),
				padRight(cell(r.BodyBattery.Current), 4),
				padRight(cellFloat(r.BodyComposition.WeightKg), 7),
				cellFloat(r.Waist.Inches))
			shown++
		}
		return nil
	},
}

var ledgerCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete stale ledger versions",
	Long: `Delete every stored version of the ledger except the newest.

Duplicates are left behind when a delete fails after a successful write.
Readers always use the newest version, so this only reclaims space.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := app.requireStore()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		removed, err := store.Cleanup(ctx)
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		color.Green("✓ Removed %d stale version(s)", removed)
		return nil
	},
}

var ledgerMigrateCmd = &cobra.Command{
	Use:   "migrate <backend>",
	Short: "Copy the ledger to another backend",
	Long: `Copy the newest version of the ledger from the configured backend to
another one (sqlite, badger, charm). The destination must not already hold a
ledger. Switch afterwards with 'wellness config set backend <backend>'.

EXAMPLES:

  wellness ledger migrate badger
  wellness ledger migrate charm`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"sqlite", "badger", "charm"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.objects == nil {
			return report.ErrStorageDisabled
		}
		if args[0] == cfg.GetBackend() {
			return fmt.Errorf("ledger already uses the %s backend", args[0])
		}

		dstCfg := *cfg
		dstCfg.Backend = args[0]
		dst, err := dstCfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open %s backend: %w", args[0], err)
		}
		defer dst.Close()

		ctx, cancel := commandContext()
		defer cancel()

		summary, err := storage.MigrateData(ctx, app.objects, dst, cfg.GetLedgerName())
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		color.Green("✓ Copied %s (%d bytes) to %s", summary.Name, summary.Bytes, args[0])
		if summary.Skipped > 0 {
			color.New(color.Faint).Printf("  %d older version(s) left behind; run 'wellness ledger cleanup'\n", summary.Skipped)
		}
		fmt.Printf("Switch with: wellness config set backend %s\n", args[0])
		return nil
	},
}

func cell(v int) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", v)
}

func cellFloat(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	ledgerListCmd.Flags().IntVarP(&ledgerLimit, "limit", "n", 14, "max number of rows")
	ledgerListCmd.Flags().BoolVar(&ledgerObjects, "objects", false, "list stored ledger versions")
	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerCleanupCmd)
	ledgerCmd.AddCommand(ledgerMigrateCmd)
	rootCmd.AddCommand(ledgerCmd)
}
