// ABOUTME: Ledger store: read-all, upsert and rewrite of the date-keyed flat file.
// ABOUTME: Replacement is put-new then delete-old because the object store is versioned.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harperreed/wellness/internal/models"
	"github.com/harperreed/wellness/internal/observability"
	"github.com/harperreed/wellness/internal/storage"
)

// DefaultName is the logical object name of the ledger.
const DefaultName = "garmin_health_data.csv"

// DefaultTimeout bounds each object-store call.
const DefaultTimeout = 30 * time.Second

// ErrConflict means another writer replaced the ledger between our read and our write.
var ErrConflict = errors.New("ledger changed since it was read")

// Mutation receives the current history (ascending by date) and returns the row to upsert.
// Returning a nil row skips the write.
type Mutation func(history []*models.DailyRecord) (*models.DailyRecord, error)

// Applier performs one read-modify-write of the ledger.
type Applier interface {
	Apply(ctx context.Context, mutate Mutation, preserve ...models.PreserveGroup) (*models.DailyRecord, error)
}

// Store reads and rewrites the ledger object.
type Store struct {
	objects storage.ObjectStore
	name    string
	timeout time.Duration
}

// Compile-time check that Store implements Applier.
var _ Applier = (*Store)(nil)

// NewStore creates a ledger store over objects. Empty name and zero timeout use defaults.
func NewStore(objects storage.ObjectStore, name string, timeout time.Duration) *Store {
	if name == "" {
		name = DefaultName
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{objects: objects, name: name, timeout: timeout}
}

// Name returns the ledger's logical object name.
func (s *Store) Name() string {
	return s.name
}

// snapshot is one consistent read of the ledger.
type snapshot struct {
	records []*models.DailyRecord
	objects []storage.Object
	newest  storage.Object
	found   bool
}

func (s *Store) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) list(ctx context.Context) ([]storage.Object, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	objects, err := s.objects.List(ctx, s.name)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.name, err)
	}
	return objects, nil
}

// load reads the newest ledger object. An absent ledger is not an error.
func (s *Store) load(ctx context.Context) (snapshot, error) {
	objects, err := s.list(ctx)
	if err != nil {
		return snapshot{}, err
	}
	newest, ok := storage.Newest(objects)
	if !ok {
		return snapshot{}, nil
	}

	getCtx, cancel := s.call(ctx)
	defer cancel()
	data, err := s.objects.Get(getCtx, newest.Handle)
	if err != nil {
		return snapshot{}, fmt.Errorf("get %s: %w", newest.Handle, err)
	}
	records, err := Decode(data)
	if err != nil {
		return snapshot{}, fmt.Errorf("decode %s: %w", newest.Handle, err)
	}
	return snapshot{records: records, objects: objects, newest: newest, found: true}, nil
}

// ReadAll returns every ledger row ascending by date. Failures degrade to an empty ledger.
func (s *Store) ReadAll(ctx context.Context) []*models.DailyRecord {
	snap, err := s.load(ctx)
	if err != nil {
		observability.RecordLedgerReadFailure()
		log.Warn().Err(err).Str("ledger", s.name).Msg("ledger read failed, using empty ledger")
		return nil
	}
	return snap.records
}

// Latest returns the most recent row, if any.
func (s *Store) Latest(ctx context.Context) (*models.DailyRecord, bool) {
	records := s.ReadAll(ctx)
	if len(records) == 0 {
		return nil, false
	}
	return records[len(records)-1], true
}

// Upsert merges row into the ledger by date and rewrites the ledger.
func (s *Store) Upsert(ctx context.Context, row *models.DailyRecord, preserve ...models.PreserveGroup) (*models.DailyRecord, error) {
	return s.Apply(ctx, func([]*models.DailyRecord) (*models.DailyRecord, error) {
		return row, nil
	}, preserve...)
}

// Apply runs one read-modify-write. A failed read aborts the write rather than
// replacing the ledger with a single row.
func (s *Store) Apply(ctx context.Context, mutate Mutation, preserve ...models.PreserveGroup) (*models.DailyRecord, error) {
	snap, err := s.load(ctx)
	if err != nil {
		observability.RecordLedgerReadFailure()
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	row, err := mutate(snap.records)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	if row.Date == "" {
		return nil, errors.New("upsert row has no date")
	}

	records, merged := upsertRow(snap.records, row, preserve)
	if err := s.write(ctx, records, snap); err != nil {
		return merged, err
	}
	return merged, nil
}

// upsertRow replaces or appends the row for row.Date and returns the sorted collection.
func upsertRow(records []*models.DailyRecord, row *models.DailyRecord, preserve []models.PreserveGroup) ([]*models.DailyRecord, *models.DailyRecord) {
	out := make([]*models.DailyRecord, 0, len(records)+1)
	var merged *models.DailyRecord
	for _, r := range records {
		if r.Date == row.Date {
			merged = Merge(r, row, preserve)
			out = append(out, merged)
			continue
		}
		out = append(out, r)
	}
	if merged == nil {
		merged = Merge(nil, row, preserve)
		out = append(out, merged)
	}
	return SortByDate(out), merged
}

// Merge returns a copy of row where every empty preserved column is filled from existing.
// The group's source-date companion follows any copied value.
func Merge(existing, row *models.DailyRecord, preserve []models.PreserveGroup) *models.DailyRecord {
	merged := *row
	if existing == nil {
		return &merged
	}
	for _, g := range preserve {
		copied := false
		for _, col := range g.Columns {
			if isEmptyCell(&merged, col) && !isEmptyCell(existing, col) {
				v, _ := Value(existing, col)
				_ = SetValue(&merged, col, v)
				copied = true
			}
		}
		if copied && g.DateColumn != "" && isEmptyCell(&merged, g.DateColumn) {
			v, _ := Value(existing, g.DateColumn)
			if v == "" {
				v = existing.Date
			}
			_ = SetValue(&merged, g.DateColumn, v)
		}
	}
	return &merged
}

func isEmptyCell(r *models.DailyRecord, col string) bool {
	v, ok := Value(r, col)
	if !ok || v == "" {
		return true
	}
	f, err := parseNumber(v)
	return err == nil && f == 0
}

// write serializes records, checks nobody replaced the ledger since snap was read,
// puts the new object and deletes every older version.
func (s *Store) write(ctx context.Context, records []*models.DailyRecord, snap snapshot) error {
	data, err := Encode(records)
	if err != nil {
		observability.RecordLedgerWrite("failed")
		return fmt.Errorf("encode ledger: %w", err)
	}

	current, err := s.list(ctx)
	if err != nil {
		observability.RecordLedgerWrite("failed")
		return fmt.Errorf("recheck ledger: %w", err)
	}
	latest, ok := storage.Newest(current)
	if ok != snap.found || latest.Handle != snap.newest.Handle {
		observability.RecordLedgerWrite("conflict")
		return ErrConflict
	}

	putCtx, cancel := s.call(ctx)
	created, err := s.objects.Put(putCtx, s.name, data)
	cancel()
	if err != nil {
		observability.RecordLedgerWrite("failed")
		return fmt.Errorf("put %s: %w", s.name, err)
	}

	s.deleteAll(ctx, current, created.Handle)

	observability.RecordLedgerWrite("ok")
	observability.RecordLedgerUpsert(len(records), created.CreatedAt)
	log.Debug().Str("ledger", s.name).Str("handle", created.Handle).Int("rows", len(records)).Msg("ledger written")
	return nil
}

// deleteAll removes the given versions except keep. Failures leave duplicates that
// readers resolve by picking the newest.
func (s *Store) deleteAll(ctx context.Context, objects []storage.Object, keep string) int {
	deleted := 0
	for _, o := range objects {
		if o.Handle == keep {
			continue
		}
		delCtx, cancel := s.call(ctx)
		err := s.objects.Delete(delCtx, o.Handle)
		cancel()
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Warn().Err(err).Str("handle", o.Handle).Msg("failed to delete old ledger version")
			continue
		}
		deleted++
	}
	return deleted
}

// List returns every stored version of the ledger, oldest first.
func (s *Store) List(ctx context.Context) ([]storage.Object, error) {
	return s.list(ctx)
}

// Cleanup deletes every version except the newest and returns how many were removed.
func (s *Store) Cleanup(ctx context.Context) (int, error) {
	objects, err := s.list(ctx)
	if err != nil {
		return 0, err
	}
	newest, ok := storage.Newest(objects)
	if !ok {
		return 0, nil
	}
	return s.deleteAll(ctx, objects, newest.Handle), nil
}
