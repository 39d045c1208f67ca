// ABOUTME: CLI command that runs the HTTP API with an optional cron-scheduled sync.
// ABOUTME: Handles graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harperreed/wellness/internal/api"
	"github.com/harperreed/wellness/internal/report"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr     string
	serveSchedule string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API.

ROUTES:

  GET  /api/stats            Build today's report and upsert it
  POST /api/waist            Record today's waist: {"inches": 33.5}
  GET  /api/export?format=   Download the ledger (csv, json, yaml)
  GET  /api/health           Credentials and storage readiness
  GET  /metrics              Prometheus metrics

  /api/stats answers 503 when the provider session is missing or expired. If
  the ledger cannot be read or written it answers 500 with
  {"error": "...", "report": {...}} so the computed report is not lost.

SCHEDULE:

  --schedule takes a standard 5-field cron spec evaluated in the configured
  timezone. Each tick runs the same build-and-upsert as /api/stats.

EXAMPLES:

  wellness serve
  wellness serve --addr :9000 --schedule "55 23 * * *"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.GetHTTPAddress()
		}
		schedule := serveSchedule
		if schedule == "" {
			schedule = cfg.Schedule
		}

		ctx, cancel := commandContext()
		defer cancel()

		if schedule != "" {
			sched, err := startSchedule(ctx, schedule, app.assembler)
			if err != nil {
				return err
			}
			defer func() { <-sched.Stop().Done() }()
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           api.NewHandler(app.assembler, app.store),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      90 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", addr).Str("backend", cfg.GetBackend()).Msg("http server listening")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down http server")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	},
}

// startSchedule runs a report build on every tick of spec.
func startSchedule(ctx context.Context, spec string, assembler *report.Assembler) (*cron.Cron, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, func() { scheduledBuild(ctx, assembler) }); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	c.Start()
	log.Info().Str("schedule", spec).Str("timezone", loc.String()).Msg("scheduled sync enabled")
	return c, nil
}

func scheduledBuild(ctx context.Context, assembler *report.Assembler) {
	if ctx.Err() != nil {
		return
	}
	rep, err := assembler.Build(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduled sync failed")
		return
	}
	log.Info().
		Str("date", rep.Date).
		Int("unavailable", len(rep.Unavailable)).
		Bool("stored", rep.Stored).
		Msg("scheduled sync complete")
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveSchedule, "schedule", "", "cron spec for automatic sync")
	rootCmd.AddCommand(serveCmd)
}
