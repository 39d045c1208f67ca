// ABOUTME: CLI command for recording today's waist measurement.
// ABOUTME: Accepts inches, or centimeters with --cm.
package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const cmPerInch = 2.54

var waistCM bool

var waistCmd = &cobra.Command{
	Use:     "waist <value>",
	Aliases: []string{"w"},
	Short:   "Record today's waist measurement",
	Long: `Record today's waist measurement in the ledger.

The value is stored on today's row along with today's date. Other columns of
today's row are left untouched, and the measurement is carried forward to
later days until a new one is recorded.

Examples:
  wellness waist 33.5
  wellness waist 85 --cm`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := parseMeasurement(args[0])
		if err != nil {
			return err
		}
		inches := value
		if waistCM {
			inches = value / cmPerInch
		}

		ctx, cancel := commandContext()
		defer cancel()

		row, err := app.assembler.RecordWaist(ctx, inches)
		if err != nil {
			return err
		}
		color.Green("✓ Waist %.2f in recorded for %s", row.Waist.Inches, row.Waist.Date)
		return nil
	},
}

func parseMeasurement(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value: %s", s)
	}
	return v, nil
}

func init() {
	waistCmd.Flags().BoolVar(&waistCM, "cm", false, "value is in centimeters")
	rootCmd.AddCommand(waistCmd)
}
