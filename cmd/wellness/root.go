// ABOUTME: Root Cobra command for wellness CLI.
// ABOUTME: Loads config, sets up logging, and manages the application lifecycle.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harperreed/wellness/internal/config"
)

// standaloneAnnotation marks commands that run without the application (storage, session).
const standaloneAnnotation = "standalone"

var (
	cfg *config.Config
	app *application
)

var rootCmd = &cobra.Command{
	Use:   "wellness",
	Short: "Daily wellness ledger from your fitness tracker",
	Long: `Wellness pulls your daily metrics from your fitness tracker and keeps
one normalized row per day in a flat-file ledger.

WHAT IT TRACKS:

  Activity       steps, distance, floors, heart rate, calories, intensity minutes
  Sleep          score, stages, timing, overnight stress/SpO2/respiration
  Recovery       stress buckets, body battery, HRV, training readiness
  Training       status, VO2max, fitness age, acute/chronic load, load balance
  All-day        respiration, SpO2, skin temperature
  Slow-changing  body composition and waist (carried forward when missing)

QUICK START:

  $ export GARMIN_TOKENS="$(cat garmin_tokens.json)"
  $ wellness sync                    # Fetch today and update the ledger
  $ wellness waist 33.5              # Record today's waist in inches
  $ wellness ledger list             # See recent rows
  $ wellness export csv -o out.csv   # Download the ledger

SERVER:

  $ wellness serve --schedule "0 22 * * *"

  Serves /api/stats, /api/waist, /api/export, /api/health and /metrics,
  and syncs on the given cron schedule.

MCP INTEGRATION:

  Run 'wellness mcp' to start the Model Context Protocol server:

  {
    "mcpServers": {
      "wellness": { "command": "wellness", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  The ledger lives in the configured object store (sqlite by default, at
  ~/.local/share/wellness/wellness.db). See 'wellness config show'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		setupLogging(cfg.GetLogLevel())

		if isStandalone(cmd) {
			return nil
		}
		app, err = newApplication(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app != nil {
			err := app.Close()
			app = nil
			return err
		}
		return nil
	},
}

func isStandalone(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[standaloneAnnotation] == "true" {
			return true
		}
	}
	return cmd.Name() == "help" || cmd.Name() == "completion"
}

func standalone() map[string]string {
	return map[string]string{standaloneAnnotation: "true"}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
