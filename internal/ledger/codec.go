// ABOUTME: CSV codec for the ledger flat file.
// ABOUTME: A column table maps stable column names to DailyRecord fields.
package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/harperreed/wellness/internal/models"
)

type column struct {
	name string
	get  func(r *models.DailyRecord) string
	set  func(r *models.DailyRecord, v string) error
}

func intColumn(name string, field func(*models.DailyRecord) *int) column {
	return column{
		name: name,
		get:  func(r *models.DailyRecord) string { return strconv.Itoa(*field(r)) },
		set: func(r *models.DailyRecord, v string) error {
			f, err := parseNumber(v)
			*field(r) = int(math.Round(f))
			return err
		},
	}
}

func int64Column(name string, field func(*models.DailyRecord) *int64) column {
	return column{
		name: name,
		get:  func(r *models.DailyRecord) string { return strconv.FormatInt(*field(r), 10) },
		set: func(r *models.DailyRecord, v string) error {
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				*field(r) = n
				return nil
			}
			f, err := parseNumber(v)
			*field(r) = int64(math.Round(f))
			return err
		},
	}
}

func floatColumn(name string, field func(*models.DailyRecord) *float64) column {
	return column{
		name: name,
		get:  func(r *models.DailyRecord) string { return formatFloat(*field(r)) },
		set: func(r *models.DailyRecord, v string) error {
			f, err := parseNumber(v)
			*field(r) = f
			return err
		},
	}
}

// slowColumn is a float column of a slowly-changing group; zero is written as an empty cell.
func slowColumn(name string, field func(*models.DailyRecord) *float64) column {
	c := floatColumn(name, field)
	c.get = func(r *models.DailyRecord) string {
		if *field(r) == 0 {
			return ""
		}
		return formatFloat(*field(r))
	}
	return c
}

func textColumn(name string, field func(*models.DailyRecord) *string) column {
	return column{
		name: name,
		get:  func(r *models.DailyRecord) string { return *field(r) },
		set: func(r *models.DailyRecord, v string) error {
			*field(r) = v
			return nil
		},
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseNumber accepts empty cells as zero.
func parseNumber(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", v, err)
	}
	return f, nil
}

// columns is the ledger schema. New columns are appended; old files missing them parse as zero.
var columns = []column{
	textColumn("date", func(r *models.DailyRecord) *string { return &r.Date }),

	intColumn("steps", func(r *models.DailyRecord) *int { return &r.Activity.Steps }),
	intColumn("steps_yesterday", func(r *models.DailyRecord) *int { return &r.Activity.StepsYesterday }),
	floatColumn("distance_meters", func(r *models.DailyRecord) *float64 { return &r.Activity.DistanceMeters }),
	floatColumn("floors_climbed", func(r *models.DailyRecord) *float64 { return &r.Activity.FloorsClimbed }),
	intColumn("resting_hr", func(r *models.DailyRecord) *int { return &r.Activity.RestingHeartRate }),
	intColumn("min_hr", func(r *models.DailyRecord) *int { return &r.Activity.MinHeartRate }),
	intColumn("max_hr", func(r *models.DailyRecord) *int { return &r.Activity.MaxHeartRate }),
	intColumn("active_calories", func(r *models.DailyRecord) *int { return &r.Activity.ActiveCalories }),
	intColumn("total_calories", func(r *models.DailyRecord) *int { return &r.Activity.TotalCalories }),
	intColumn("intensity_minutes", func(r *models.DailyRecord) *int { return &r.Activity.IntensityMinutes }),
	intColumn("moderate_minutes", func(r *models.DailyRecord) *int { return &r.Activity.ModerateMinutes }),
	intColumn("vigorous_minutes", func(r *models.DailyRecord) *int { return &r.Activity.VigorousMinutes }),

	intColumn("sleep_score", func(r *models.DailyRecord) *int { return &r.Sleep.OverallScore }),
	intColumn("sleep_total_seconds", func(r *models.DailyRecord) *int { return &r.Sleep.TotalSeconds }),
	intColumn("sleep_deep_seconds", func(r *models.DailyRecord) *int { return &r.Sleep.DeepSeconds }),
	intColumn("sleep_light_seconds", func(r *models.DailyRecord) *int { return &r.Sleep.LightSeconds }),
	intColumn("sleep_rem_seconds", func(r *models.DailyRecord) *int { return &r.Sleep.REMSeconds }),
	intColumn("sleep_awake_seconds", func(r *models.DailyRecord) *int { return &r.Sleep.AwakeSeconds }),
	floatColumn("sleep_avg_stress", func(r *models.DailyRecord) *float64 { return &r.Sleep.AvgStress }),
	floatColumn("sleep_avg_spo2", func(r *models.DailyRecord) *float64 { return &r.Sleep.AvgSpO2 }),
	floatColumn("sleep_avg_respiration", func(r *models.DailyRecord) *float64 { return &r.Sleep.AvgRespiration }),
	int64Column("sleep_start", func(r *models.DailyRecord) *int64 { return &r.Sleep.StartTime }),
	int64Column("sleep_end", func(r *models.DailyRecord) *int64 { return &r.Sleep.EndTime }),
	intColumn("sleep_consistency_score", func(r *models.DailyRecord) *int { return &r.Sleep.ConsistencyScore }),
	intColumn("sleep_alignment_score", func(r *models.DailyRecord) *int { return &r.Sleep.AlignmentScore }),
	intColumn("sleep_restfulness_score", func(r *models.DailyRecord) *int { return &r.Sleep.RestfulnessScore }),

	intColumn("stress_avg", func(r *models.DailyRecord) *int { return &r.Stress.AverageLevel }),
	intColumn("stress_max", func(r *models.DailyRecord) *int { return &r.Stress.MaxLevel }),
	intColumn("stress_rest_seconds", func(r *models.DailyRecord) *int { return &r.Stress.RestDurationSeconds }),
	intColumn("stress_low_seconds", func(r *models.DailyRecord) *int { return &r.Stress.LowDurationSeconds }),
	intColumn("stress_medium_seconds", func(r *models.DailyRecord) *int { return &r.Stress.MediumDurationSeconds }),
	intColumn("stress_high_seconds", func(r *models.DailyRecord) *int { return &r.Stress.HighDurationSeconds }),

	intColumn("body_battery_current", func(r *models.DailyRecord) *int { return &r.BodyBattery.Current }),
	intColumn("body_battery_high", func(r *models.DailyRecord) *int { return &r.BodyBattery.Highest }),
	intColumn("body_battery_low", func(r *models.DailyRecord) *int { return &r.BodyBattery.Lowest }),
	intColumn("body_battery_charged", func(r *models.DailyRecord) *int { return &r.BodyBattery.Charged }),
	intColumn("body_battery_drained", func(r *models.DailyRecord) *int { return &r.BodyBattery.Drained }),

	intColumn("hrv_last_night_avg", func(r *models.DailyRecord) *int { return &r.HRV.LastNightAvg }),
	textColumn("hrv_status", func(r *models.DailyRecord) *string { return &r.HRV.Status }),
	intColumn("hrv_balanced_low", func(r *models.DailyRecord) *int { return &r.HRV.BalancedLow }),
	intColumn("hrv_balanced_upper", func(r *models.DailyRecord) *int { return &r.HRV.BalancedUpper }),

	intColumn("training_readiness_score", func(r *models.DailyRecord) *int { return &r.TrainingReadiness.Score }),
	textColumn("training_readiness_level", func(r *models.DailyRecord) *string { return &r.TrainingReadiness.Level }),

	intColumn("training_status_key", func(r *models.DailyRecord) *int { return &r.TrainingStatus.StatusKey }),
	textColumn("training_status_label", func(r *models.DailyRecord) *string { return &r.TrainingStatus.StatusLabel }),
	floatColumn("vo2_max", func(r *models.DailyRecord) *float64 { return &r.TrainingStatus.VO2Max }),
	floatColumn("fitness_age", func(r *models.DailyRecord) *float64 { return &r.TrainingStatus.FitnessAge }),
	intColumn("fitness_trend", func(r *models.DailyRecord) *int { return &r.TrainingStatus.FitnessTrend }),
	floatColumn("acute_load", func(r *models.DailyRecord) *float64 { return &r.TrainingStatus.AcuteLoad }),
	floatColumn("chronic_load", func(r *models.DailyRecord) *float64 { return &r.TrainingStatus.ChronicLoad }),
	floatColumn("load_ratio", func(r *models.DailyRecord) *float64 { return &r.TrainingStatus.LoadRatio }),
	textColumn("load_status", func(r *models.DailyRecord) *string { return &r.TrainingStatus.LoadStatus }),
	textColumn("load_balance", func(r *models.DailyRecord) *string { return &r.TrainingStatus.LoadBalance }),
	floatColumn("aerobic_low_load", func(r *models.DailyRecord) *float64 { return &r.TrainingStatus.AerobicLowLoad }),
	floatColumn("aerobic_high_load", func(r *models.DailyRecord) *float64 { return &r.TrainingStatus.AerobicHighLoad }),
	floatColumn("anaerobic_load", func(r *models.DailyRecord) *float64 { return &r.TrainingStatus.AnaerobicLoad }),

	floatColumn("respiration_avg", func(r *models.DailyRecord) *float64 { return &r.Respiration.Average }),
	floatColumn("respiration_min", func(r *models.DailyRecord) *float64 { return &r.Respiration.Min }),
	floatColumn("respiration_max", func(r *models.DailyRecord) *float64 { return &r.Respiration.Max }),
	floatColumn("spo2_avg", func(r *models.DailyRecord) *float64 { return &r.SpO2.Average }),
	floatColumn("spo2_min", func(r *models.DailyRecord) *float64 { return &r.SpO2.Min }),
	floatColumn("skin_temp_variance", func(r *models.DailyRecord) *float64 { return &r.SkinTempVariance }),

	slowColumn("weight_kg", func(r *models.DailyRecord) *float64 { return &r.BodyComposition.WeightKg }),
	slowColumn("weight_lbs", func(r *models.DailyRecord) *float64 { return &r.BodyComposition.WeightLbs }),
	slowColumn("body_fat_pct", func(r *models.DailyRecord) *float64 { return &r.BodyComposition.BodyFatPct }),
	slowColumn("body_water_pct", func(r *models.DailyRecord) *float64 { return &r.BodyComposition.BodyWaterPct }),
	slowColumn("muscle_mass_kg", func(r *models.DailyRecord) *float64 { return &r.BodyComposition.MuscleMassKg }),
	textColumn("body_comp_date", func(r *models.DailyRecord) *string { return &r.BodyComposition.Date }),
	slowColumn("waist_inches", func(r *models.DailyRecord) *float64 { return &r.Waist.Inches }),
	textColumn("waist_date", func(r *models.DailyRecord) *string { return &r.Waist.Date }),
}

var columnIndex = func() map[string]column {
	idx := make(map[string]column, len(columns))
	for _, c := range columns {
		idx[c.name] = c
	}
	return idx
}()

// Columns returns the ledger header in write order.
func Columns() []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
	}
	return names
}

// Value returns the serialized cell for a named column.
func Value(r *models.DailyRecord, name string) (string, bool) {
	c, ok := columnIndex[name]
	if !ok {
		return "", false
	}
	return c.get(r), true
}

// SetValue parses a serialized cell into a named column.
func SetValue(r *models.DailyRecord, name, v string) error {
	c, ok := columnIndex[name]
	if !ok {
		return fmt.Errorf("unknown column %q", name)
	}
	return c.set(r, v)
}

// Encode writes records as CSV, sorted ascending by date.
func Encode(records []*models.DailyRecord) ([]byte, error) {
	sorted := SortByDate(records)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns()); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(columns))
	for _, r := range sorted {
		for i, c := range columns {
			row[i] = c.get(r)
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row %s: %w", r.Date, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ErrMissingDateColumn means the flat file has no date key column.
var ErrMissingDateColumn = errors.New("ledger has no date column")

// Decode parses a ledger flat file. Unknown columns are ignored, malformed cells read as zero,
// rows without a date are dropped, and a later row wins over an earlier one with the same date.
func Decode(data []byte) ([]*models.DailyRecord, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	rd := csv.NewReader(bytes.NewReader(data))
	rd.FieldsPerRecord = -1
	header, err := rd.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	mapped := make([]*column, len(header))
	hasDate := false
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if c, ok := columnIndex[name]; ok {
			mapped[i] = &c
			hasDate = hasDate || name == "date"
		}
	}
	if !hasDate {
		return nil, ErrMissingDateColumn
	}

	byDate := make(map[string]*models.DailyRecord)
	for {
		fields, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		r := &models.DailyRecord{}
		for i, v := range fields {
			if i < len(mapped) && mapped[i] != nil {
				_ = mapped[i].set(r, v) // malformed cells stay zero
			}
		}
		r.Date = strings.TrimSpace(r.Date)
		if r.Date == "" {
			continue
		}
		byDate[r.Date] = r
	}

	records := make([]*models.DailyRecord, 0, len(byDate))
	for _, r := range byDate {
		records = append(records, r)
	}
	return SortByDate(records), nil
}

// SortByDate returns a copy of records ordered ascending by date key.
func SortByDate(records []*models.DailyRecord) []*models.DailyRecord {
	sorted := make([]*models.DailyRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})
	return sorted
}
