// ABOUTME: Records a waist measurement into today's ledger row.
// ABOUTME: Body composition already on the row is preserved, or carried forward on a new day.
package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/wellness/internal/models"
)

// ErrInvalidWaist rejects non-positive measurements.
var ErrInvalidWaist = errors.New("waist must be a positive number of inches")

// maxWaistInches rejects obvious unit mistakes (centimetres entered as inches).
const maxWaistInches = 100

// RecordWaist sets today's waist measurement and upserts the row.
func (a *Assembler) RecordWaist(ctx context.Context, inches float64) (*models.DailyRecord, error) {
	if inches <= 0 || inches > maxWaistInches {
		return nil, fmt.Errorf("%w (got %g)", ErrInvalidWaist, inches)
	}
	if a.writer == nil {
		return nil, ErrStorageDisabled
	}

	day := a.Today()
	date := day.Format(models.DateLayout)
	row, err := a.writer.Apply(ctx, func(history []*models.DailyRecord) (*models.DailyRecord, error) {
		var row *models.DailyRecord
		for _, r := range history {
			if r.Date == date {
				copied := *r
				row = &copied
				break
			}
		}
		if row == nil {
			// First row for the day starts from carried-forward history.
			row, _ = withCarryForward(models.NewDailyRecord(day), history)
		}
		row.Waist = models.Waist{Inches: inches, Date: date}
		return row, nil
	}, models.SlowlyChanging...)
	if err != nil {
		return row, fmt.Errorf("record waist: %w", err)
	}
	return row, nil
}
