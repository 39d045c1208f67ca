// ABOUTME: Carry-forward resolver for slowly-changing column groups.
// ABOUTME: Scans history newest-first for the last present value and its source date.
package ledger

import "github.com/harperreed/wellness/internal/models"

// Resolution is a carried-forward group value.
type Resolution struct {
	Row        *models.DailyRecord
	SourceDate string
}

// Resolve returns the newest row on or before day whose group primary is positive.
// An empty day means no upper bound. History is never modified.
func Resolve(history []*models.DailyRecord, group models.PreserveGroup, day string) (Resolution, bool) {
	sorted := SortByDate(history)
	for i := len(sorted) - 1; i >= 0; i-- {
		r := sorted[i]
		if day != "" && r.Date > day {
			continue
		}
		v, _ := Value(r, group.Primary)
		if f, err := parseNumber(v); err != nil || f <= 0 {
			continue
		}
		src, _ := Value(r, group.DateColumn)
		if src == "" {
			src = r.Date
		}
		return Resolution{Row: r, SourceDate: src}, true
	}
	return Resolution{}, false
}

// CarryInto fills dst's group from the resolution when dst has no positive primary value.
// It reports whether anything was copied.
func CarryInto(dst *models.DailyRecord, group models.PreserveGroup, res Resolution) bool {
	if res.Row == nil {
		return false
	}
	v, _ := Value(dst, group.Primary)
	if f, err := parseNumber(v); err == nil && f > 0 {
		return false
	}
	for _, col := range group.Columns {
		cell, _ := Value(res.Row, col)
		_ = SetValue(dst, col, cell)
	}
	if group.DateColumn != "" {
		_ = SetValue(dst, group.DateColumn, res.SourceDate)
	}
	return true
}

// CarryBodyComposition resolves the last known body composition on or before day.
func CarryBodyComposition(history []*models.DailyRecord, day string) (models.BodyComposition, bool) {
	res, ok := Resolve(history, models.BodyCompositionGroup, day)
	if !ok {
		return models.BodyComposition{}, false
	}
	bc := res.Row.BodyComposition
	bc.Date = res.SourceDate
	return bc, true
}

// CarryWaist resolves the last known waist measurement on or before day.
func CarryWaist(history []*models.DailyRecord, day string) (models.Waist, bool) {
	res, ok := Resolve(history, models.WaistGroup, day)
	if !ok {
		return models.Waist{}, false
	}
	w := res.Row.Waist
	w.Date = res.SourceDate
	return w, true
}
