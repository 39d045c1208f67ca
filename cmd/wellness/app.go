// ABOUTME: Application wiring shared by every command.
// ABOUTME: Opens the object store, the provider session, the ledger writer and the assembler.
package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/harperreed/wellness/internal/config"
	"github.com/harperreed/wellness/internal/garmin"
	"github.com/harperreed/wellness/internal/ledger"
	"github.com/harperreed/wellness/internal/report"
	"github.com/harperreed/wellness/internal/storage"
)

type application struct {
	cfg       *config.Config
	objects   storage.ObjectStore
	store     *ledger.Store
	writer    *ledger.Writer
	session   *garmin.Session
	assembler *report.Assembler
}

// newApplication wires the app. Missing credentials or storage degrade instead of failing;
// commands that need them report garmin.ErrNoSession or report.ErrStorageDisabled.
func newApplication(cfg *config.Config) (*application, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &application{cfg: cfg}
	opts := report.Options{Location: loc}

	if objects, err := cfg.OpenStorage(); err != nil {
		log.Warn().Err(err).Str("backend", cfg.GetBackend()).Msg("ledger storage unavailable, writes disabled")
	} else {
		a.objects = objects
		a.store = ledger.NewStore(objects, cfg.GetLedgerName(), cfg.GetWriteTimeout())
		a.writer = ledger.NewWriter(a.store, ledger.DefaultAttempts)
		opts.Store = a.store
		opts.Writer = a.writer
	}

	if session, err := cfg.OpenSession(); err != nil {
		if !errors.Is(err, garmin.ErrNoSession) {
			log.Warn().Err(err).Msg("provider tokens unreadable")
		}
	} else {
		client, err := garmin.NewClient(session, garmin.Options{
			BaseURL:     cfg.APIBaseURL,
			DisplayName: cfg.DisplayName,
			Timeout:     cfg.GetFetchTimeout(),
		})
		if err != nil {
			return nil, err
		}
		a.session = session
		opts.Gateway = client
		opts.Credentials = session
	}

	a.assembler = report.New(opts)
	return a, nil
}

// requireStore returns the ledger store or report.ErrStorageDisabled.
func (a *application) requireStore() (*ledger.Store, error) {
	if a.store == nil {
		return nil, report.ErrStorageDisabled
	}
	return a.store, nil
}

// Close stops the writer and closes the object store.
func (a *application) Close() error {
	if a.writer != nil {
		a.writer.Close()
	}
	if a.objects != nil {
		return a.objects.Close()
	}
	return nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return signalContext(context.Background())
}
