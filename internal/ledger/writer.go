// ABOUTME: Single designated ledger writer that serializes read-modify-write cycles.
// ABOUTME: Requests run one at a time on one goroutine and retry on ErrConflict.
package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/harperreed/wellness/internal/models"
)

// DefaultAttempts bounds conflict retries per request.
const DefaultAttempts = 3

// ErrWriterClosed is returned for requests sent after Close.
var ErrWriterClosed = errors.New("ledger writer closed")

type writeRequest struct {
	ctx      context.Context
	mutate   Mutation
	preserve []models.PreserveGroup
	reply    chan writeResult
}

type writeResult struct {
	row *models.DailyRecord
	err error
}

// Writer owns every ledger mutation in the process.
type Writer struct {
	store    *Store
	attempts int
	requests chan writeRequest
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Compile-time check that Writer implements Applier.
var _ Applier = (*Writer)(nil)

// NewWriter starts the writer goroutine. Call Close to stop it.
func NewWriter(store *Store, attempts int) *Writer {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	w := &Writer{
		store:    store,
		attempts: attempts,
		requests: make(chan writeRequest),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.quit:
			return
		case req := <-w.requests:
			row, err := w.apply(req)
			req.reply <- writeResult{row: row, err: err}
		}
	}
}

func (w *Writer) apply(req writeRequest) (*models.DailyRecord, error) {
	var (
		row *models.DailyRecord
		err error
	)
	for attempt := 1; attempt <= w.attempts; attempt++ {
		if ctxErr := req.ctx.Err(); ctxErr != nil {
			return row, ctxErr
		}
		row, err = w.store.Apply(req.ctx, req.mutate, req.preserve...)
		if !errors.Is(err, ErrConflict) {
			return row, err
		}
		log.Warn().Int("attempt", attempt).Str("ledger", w.store.Name()).Msg("ledger changed during write, retrying")
	}
	return row, err
}

// Apply queues a read-modify-write and waits for its result.
func (w *Writer) Apply(ctx context.Context, mutate Mutation, preserve ...models.PreserveGroup) (*models.DailyRecord, error) {
	req := writeRequest{ctx: ctx, mutate: mutate, preserve: preserve, reply: make(chan writeResult, 1)}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, ErrWriterClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res.row, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Upsert queues a plain upsert of row.
func (w *Writer) Upsert(ctx context.Context, row *models.DailyRecord, preserve ...models.PreserveGroup) (*models.DailyRecord, error) {
	return w.Apply(ctx, func([]*models.DailyRecord) (*models.DailyRecord, error) {
		return row, nil
	}, preserve...)
}

// Close stops the writer after the in-flight request finishes.
func (w *Writer) Close() {
	w.once.Do(func() { close(w.quit) })
	<-w.done
}
