// ABOUTME: CLI command that builds today's report and upserts it into the ledger.
// ABOUTME: Prints a compact summary of the stored row and any degraded categories.
package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/wellness/internal/garmin"
	"github.com/harperreed/wellness/internal/report"
)

var syncJSON bool

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"s", "today"},
	Short:   "Fetch today's metrics and update the ledger",
	Long: `Fetch every category for today, normalize it into one row, carry forward
body composition and waist when they were not measured today, and upsert the
row into the ledger.

Categories that fail to load are left empty and listed as unavailable; the
row is still written.

EXAMPLES:

  wellness sync          # Human-readable summary
  wellness sync --json   # Full report as JSON`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		rep, err := app.assembler.Build(ctx)
		if rep == nil {
			return err
		}
		if syncJSON {
			if perr := printJSON(rep); perr != nil {
				return perr
			}
		} else {
			printReport(rep)
		}
		if err != nil {
			return fmt.Errorf("ledger update failed: %w", err)
		}
		return nil
	},
}

func printReport(rep *report.Report) {
	r := rep.Record
	faint := color.New(color.Faint)
	bold := color.New(color.Bold)

	bold.Printf("Wellness for %s\n", rep.Date)
	fmt.Printf("  %s %d (yesterday %d)\n", padRight("Steps", 18), r.Activity.Steps, r.Activity.StepsYesterday)
	fmt.Printf("  %s %d bpm\n", padRight("Resting HR", 18), r.Activity.RestingHeartRate)
	fmt.Printf("  %s %d (%s)\n", padRight("Sleep score", 18), r.Sleep.OverallScore, formatSeconds(r.Sleep.TotalSeconds))
	fmt.Printf("  %s %d / max %d\n", padRight("Stress", 18), r.Stress.AverageLevel, r.Stress.MaxLevel)
	fmt.Printf("  %s %d (high %d, low %d)\n", padRight("Body battery", 18), r.BodyBattery.Current, r.BodyBattery.Highest, r.BodyBattery.Lowest)
	fmt.Printf("  %s %d ms %s\n", padRight("HRV", 18), r.HRV.LastNightAvg, faint.Sprint(r.HRV.Status))
	fmt.Printf("  %s %d %s\n", padRight("Readiness", 18), r.TrainingReadiness.Score, faint.Sprint(r.TrainingReadiness.Level))
	if r.BodyComposition.Present() {
		fmt.Printf("  %s %.1f kg %s\n", padRight("Weight", 18), r.BodyComposition.WeightKg, faint.Sprintf("(%s)", r.BodyComposition.Date))
	}
	if r.Waist.Present() {
		fmt.Printf("  %s %.1f in %s\n", padRight("Waist", 18), r.Waist.Inches, faint.Sprintf("(%s)", r.Waist.Date))
	}

	if len(rep.CarriedForward) > 0 {
		faint.Printf("  carried forward: %s\n", strings.Join(rep.CarriedForward, ", "))
	}
	if len(rep.Unavailable) > 0 {
		names := make([]string, len(rep.Unavailable))
		for i, c := range rep.Unavailable {
			names[i] = string(c)
		}
		color.Yellow("⚠ Unavailable: %s", strings.Join(names, ", "))
	}
	if rep.Stored {
		color.Green("✓ Ledger updated")
	} else {
		color.Yellow("⚠ Ledger not updated")
	}
}

func formatSeconds(s int) string {
	if s <= 0 {
		return "-"
	}
	return fmt.Sprintf("%dh%02dm", s/3600, (s%3600)/60)
}

// describeError turns well-known failures into a hint for the user.
func describeError(err error) string {
	switch {
	case errors.Is(err, report.ErrStorageDisabled):
		return "ledger storage is not configured; see 'wellness config show'"
	case isSessionError(err):
		return "provider session missing or expired; export fresh tokens to GARMIN_TOKENS"
	default:
		return err.Error()
	}
}

func isSessionError(err error) bool {
	return errors.Is(err, garmin.ErrNoSession) || errors.Is(err, garmin.ErrSessionExpired)
}

func init() {
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "print the full report as JSON")
	rootCmd.AddCommand(syncCmd)
}
