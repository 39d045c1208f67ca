// ABOUTME: Report assembler: fetch every category, normalize, carry forward, upsert.
// ABOUTME: Category and storage failures degrade the report instead of aborting it.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/wellness/internal/garmin"
	"github.com/harperreed/wellness/internal/ledger"
	"github.com/harperreed/wellness/internal/models"
	"github.com/harperreed/wellness/internal/normalize"
	"github.com/harperreed/wellness/internal/observability"
)

// ErrStorageDisabled means no ledger store is configured.
var ErrStorageDisabled = errors.New("ledger storage is not configured")

// maxConcurrentFetches caps parallel category requests.
const maxConcurrentFetches = 4

// Report is today's assembled record plus how it was produced.
type Report struct {
	Date           string              `json:"date"`
	Record         *models.DailyRecord `json:"record"`
	Unavailable    []models.Category   `json:"unavailable,omitempty"`
	CarriedForward []string            `json:"carriedForward,omitempty"`
	Stored         bool                `json:"stored"`
}

// Credentials reports whether provider credentials are usable.
type Credentials interface {
	Valid() bool
}

// Options configures an Assembler. Store and Writer may be nil to run without storage.
type Options struct {
	Gateway     garmin.Gateway
	Credentials Credentials
	Store       *ledger.Store
	Writer      ledger.Applier
	Location    *time.Location
	Now         func() time.Time
}

// Assembler produces the daily report.
type Assembler struct {
	gateway     garmin.Gateway
	credentials Credentials
	store       *ledger.Store
	writer      ledger.Applier
	loc         *time.Location
	now         func() time.Time
}

// New creates an Assembler. Without a Writer, writes go straight to the Store.
func New(opts Options) *Assembler {
	a := &Assembler{
		gateway:     opts.Gateway,
		credentials: opts.Credentials,
		store:       opts.Store,
		writer:      opts.Writer,
		loc:         opts.Location,
		now:         opts.Now,
	}
	if a.writer == nil && a.store != nil {
		a.writer = a.store
	}
	if a.loc == nil {
		a.loc = time.UTC
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Today returns the calendar day in the configured zone, at midnight.
func (a *Assembler) Today() time.Time {
	now := a.now().In(a.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
}

// fetchResult is every payload for one run. Failed categories hold nil.
type fetchResult struct {
	payloads       map[models.Category][]byte
	yesterday      []byte
	unavailable    []models.Category
	authFailures   int
	firstAuthError error
}

func isAuthError(err error) bool {
	return errors.Is(err, garmin.ErrSessionExpired) || errors.Is(err, garmin.ErrNoSession)
}

func (a *Assembler) fetchAll(ctx context.Context, day time.Time) *fetchResult {
	res := &fetchResult{payloads: make(map[models.Category][]byte, len(models.AllCategories))}
	var mu sync.Mutex

	record := func(cat models.Category, date time.Time, yesterday bool) func() error {
		return func() error {
			body, err := a.gateway.FetchCategory(ctx, cat, date)
			observability.RecordFetch(string(cat), err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Err(err).Str("category", string(cat)).Str("date", date.Format(models.DateLayout)).Msg("category unavailable")
				if isAuthError(err) {
					res.authFailures++
					if res.firstAuthError == nil {
						res.firstAuthError = err
					}
				}
				if !yesterday {
					res.unavailable = append(res.unavailable, cat)
				}
				return nil
			}
			if yesterday {
				res.yesterday = body
			} else {
				res.payloads[cat] = body
			}
			return nil
		}
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for _, cat := range models.AllCategories {
		g.Go(record(cat, day, false))
	}
	g.Go(record(models.CategoryActivity, day.AddDate(0, 0, -1), true))
	_ = g.Wait()

	sortCategories(res.unavailable)
	return res
}

func sortCategories(cats []models.Category) {
	order := make(map[models.Category]int, len(models.AllCategories))
	for i, c := range models.AllCategories {
		order[c] = i
	}
	sort.Slice(cats, func(i, j int) bool { return order[cats[i]] < order[cats[j]] })
}

// normalizeAll builds the fresh row for day from raw payloads.
func normalizeAll(day time.Time, payloads map[models.Category][]byte, yesterday []byte) *models.DailyRecord {
	r := models.NewDailyRecord(day)
	r.Activity = normalize.Activity(payloads[models.CategoryActivity])
	r.Activity.StepsYesterday = normalize.Steps(yesterday)
	r.Sleep = normalize.Sleep(payloads[models.CategorySleep])
	r.Stress = normalize.Stress(payloads[models.CategoryStress])
	r.BodyBattery = normalize.BodyBattery(payloads[models.CategoryBodyBattery])
	r.HRV = normalize.HRV(payloads[models.CategoryHRV])
	r.TrainingReadiness = normalize.TrainingReadiness(payloads[models.CategoryTrainingReadiness])
	r.TrainingStatus = normalize.TrainingStatus(payloads[models.CategoryTrainingStatus])
	r.Respiration = normalize.Respiration(payloads[models.CategoryRespiration])
	r.SpO2 = normalize.SpO2(payloads[models.CategorySpO2])
	r.SkinTempVariance = normalize.SkinTemperature(payloads[models.CategorySkinTemperature])
	r.BodyComposition = normalize.BodyComposition(payloads[models.CategoryBodyComposition], day)
	return r
}

// withCarryForward copies fresh and fills empty slowly-changing groups from history.
func withCarryForward(fresh *models.DailyRecord, history []*models.DailyRecord) (*models.DailyRecord, []string) {
	row := *fresh
	var carried []string
	for _, g := range models.SlowlyChanging {
		res, ok := ledger.Resolve(history, g, row.Date)
		if ok && ledger.CarryInto(&row, g, res) {
			carried = append(carried, g.Name)
		}
	}
	return &row, carried
}

// Build fetches and normalizes today's metrics, resolves carry-forward against the
// ledger and upserts the row. A write failure is returned alongside the report.
func (a *Assembler) Build(ctx context.Context) (*Report, error) {
	if a.gateway == nil {
		return nil, garmin.ErrNoSession
	}
	if a.credentials != nil && !a.credentials.Valid() {
		return nil, garmin.ErrSessionExpired
	}

	day := a.Today()
	fetched := a.fetchAll(ctx, day)
	if fetched.authFailures == len(models.AllCategories)+1 {
		return nil, fmt.Errorf("fetch metrics: %w", fetched.firstAuthError)
	}

	fresh := normalizeAll(day, fetched.payloads, fetched.yesterday)
	rep := &Report{Date: fresh.Date, Unavailable: fetched.unavailable}

	if a.writer == nil {
		log.Warn().Err(ErrStorageDisabled).Msg("ledger write skipped")
		rep.Record, rep.CarriedForward = withCarryForward(fresh, nil)
		return rep, nil
	}

	var (
		mu      sync.Mutex
		built   *models.DailyRecord
		carried []string
	)
	stored, err := a.writer.Apply(ctx, func(history []*models.DailyRecord) (*models.DailyRecord, error) {
		row, names := withCarryForward(fresh, history)
		mu.Lock()
		built, carried = row, names
		mu.Unlock()
		return row, nil
	}, models.SlowlyChanging...)

	mu.Lock()
	defer mu.Unlock()
	rep.CarriedForward = carried

	switch {
	case err == nil:
		rep.Record = stored
		rep.Stored = true
	case built == nil:
		// The ledger could not be read; report from an empty history.
		log.Warn().Err(err).Msg("ledger unavailable, report built without history")
		rep.Record, rep.CarriedForward = withCarryForward(fresh, nil)
		return rep, fmt.Errorf("upsert ledger: %w", err)
	default:
		log.Warn().Err(err).Str("date", rep.Date).Msg("ledger write failed")
		rep.Record = built
		if stored != nil {
			rep.Record = stored
		}
		return rep, fmt.Errorf("upsert ledger: %w", err)
	}
	return rep, nil
}
