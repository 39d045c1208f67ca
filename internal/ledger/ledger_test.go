// ABOUTME: Tests for the ledger codec, upsert, carry-forward and writer.
// ABOUTME: Uses the in-memory object store with injected failures.
package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/harperreed/wellness/internal/models"
	"github.com/harperreed/wellness/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fullRecord(date string) *models.DailyRecord {
	return &models.DailyRecord{
		Date: date,
		Activity: models.Activity{
			Steps: 10432, StepsYesterday: 8120, DistanceMeters: 7810.5, FloorsClimbed: 12,
			RestingHeartRate: 52, MinHeartRate: 48, MaxHeartRate: 151,
			ActiveCalories: 640, TotalCalories: 2580,
			IntensityMinutes: 45, ModerateMinutes: 25, VigorousMinutes: 20,
		},
		Sleep: models.Sleep{
			OverallScore: 82, TotalSeconds: 27000, DeepSeconds: 5400, LightSeconds: 14400,
			REMSeconds: 6000, AwakeSeconds: 1200, AvgStress: 14.5, AvgSpO2: 95.2, AvgRespiration: 13.8,
			StartTime: 1704085200000, EndTime: 1704112200000,
			ConsistencyScore: 77, AlignmentScore: 80, RestfulnessScore: 70,
		},
		Stress: models.Stress{
			AverageLevel: 31, MaxLevel: 92,
			RestDurationSeconds: 18000, LowDurationSeconds: 9000, MediumDurationSeconds: 3600, HighDurationSeconds: 900,
		},
		BodyBattery:       models.BodyBattery{Current: 55, Highest: 90, Lowest: 18, Charged: 62, Drained: 58},
		HRV:               models.HRV{LastNightAvg: 48, Status: "BALANCED", BalancedLow: 42, BalancedUpper: 58},
		TrainingReadiness: models.TrainingReadiness{Score: 74, Level: "HIGH"},
		TrainingStatus: models.TrainingStatus{
			StatusKey: 7, StatusLabel: "PRODUCTIVE", VO2Max: 51, FitnessAge: 34, FitnessTrend: 1,
			AcuteLoad: 612, ChronicLoad: 540, LoadRatio: 1.1, LoadStatus: "OPTIMAL", LoadBalance: "BALANCED",
			AerobicLowLoad: 310.5, AerobicHighLoad: 220, AnaerobicLoad: 60,
		},
		Respiration:      models.Respiration{Average: 14.1, Min: 9, Max: 22},
		SpO2:             models.SpO2{Average: 96, Min: 89},
		SkinTempVariance: -0.3,
		BodyComposition: models.BodyComposition{
			WeightKg: 80.1, WeightLbs: 176.6, BodyFatPct: 18.4, BodyWaterPct: 57.2, MuscleMassKg: 35.9, Date: "2024-01-01",
		},
		Waist: models.Waist{Inches: 33.5, Date: "2024-01-01"},
	}
}

func newTestStore() (*Store, *storage.MemoryStore) {
	mem := storage.NewMemoryStore()
	return NewStore(mem, "", 0), mem
}

func TestCodecRoundTrip(t *testing.T) {
	records := []*models.DailyRecord{
		fullRecord("2024-01-02"),
		{Date: "2024-01-01", Activity: models.Activity{Steps: 5}},
	}

	data, err := Encode(records)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	want := SortByDate(records)
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeZeroCells(t *testing.T) {
	data, err := Encode([]*models.DailyRecord{{Date: "2024-01-01"}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	header := strings.Split(lines[0], ",")
	cells := strings.Split(lines[1], ",")
	require.Len(t, cells, len(header))

	cell := func(name string) string {
		for i, h := range header {
			if h == name {
				return cells[i]
			}
		}
		t.Fatalf("column %s missing", name)
		return ""
	}

	assert.Equal(t, "0", cell("steps"), "daily-fresh zero is written as 0")
	assert.Equal(t, "0", cell("hrv_last_night_avg"))
	assert.Equal(t, "", cell("weight_kg"), "slowly-changing zero is written empty")
	assert.Equal(t, "", cell("waist_inches"))
	assert.Equal(t, "", cell("body_comp_date"))
}

func TestDecodeTolerance(t *testing.T) {
	data := strings.Join([]string{
		"date,steps,legacy_column,weight_kg",
		"2024-01-03,300,x,",
		"2024-01-01,abc,y,70.2",
		",999,z,1",
		"2024-01-03,400,w,",
	}, "\n")

	records, err := Decode([]byte(data))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "2024-01-01", records[0].Date)
	assert.Equal(t, 0, records[0].Activity.Steps, "malformed cell reads as zero")
	assert.Equal(t, 70.2, records[0].BodyComposition.WeightKg)
	assert.Equal(t, "2024-01-03", records[1].Date)
	assert.Equal(t, 400, records[1].Activity.Steps, "later duplicate wins")
	assert.Equal(t, 0, records[1].Sleep.OverallScore, "missing column reads as zero")
}

func TestDecodeEdgeCases(t *testing.T) {
	records, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = Decode([]byte("steps,weight_kg\n1,2\n"))
	assert.ErrorIs(t, err, ErrMissingDateColumn)

	records, err = Decode([]byte("\ufeffdate,steps\n2024-01-01,7.0\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 7, records[0].Activity.Steps)
}

func TestUpsertFirstRow(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	row := &models.DailyRecord{Date: "2024-01-05", Activity: models.Activity{Steps: 100}}
	_, err := s.Upsert(ctx, row, models.SlowlyChanging...)
	require.NoError(t, err)

	records := s.ReadAll(ctx)
	require.Len(t, records, 1)
	assert.Equal(t, "2024-01-05", records[0].Date)
	assert.Equal(t, 100, records[0].Activity.Steps)
	assert.Zero(t, records[0].BodyComposition)
	assert.Zero(t, records[0].Waist)
}

func TestUpsertPreservesWaist(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	first := &models.DailyRecord{Date: "2024-01-05", Waist: models.Waist{Inches: 34.25, Date: "2024-01-05"}}
	_, err := s.Upsert(ctx, first, models.SlowlyChanging...)
	require.NoError(t, err)

	second := &models.DailyRecord{Date: "2024-01-05", Activity: models.Activity{Steps: 9000}}
	merged, err := s.Upsert(ctx, second, models.SlowlyChanging...)
	require.NoError(t, err)
	assert.Equal(t, models.Waist{Inches: 34.25, Date: "2024-01-05"}, merged.Waist)

	records := s.ReadAll(ctx)
	require.Len(t, records, 1)
	assert.Equal(t, models.Waist{Inches: 34.25, Date: "2024-01-05"}, records[0].Waist)
	assert.Equal(t, 9000, records[0].Activity.Steps, "daily-fresh fields are replaced")
}

func TestUpsertWithoutPreserveReplacesRow(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	_, err := s.Upsert(ctx, &models.DailyRecord{Date: "2024-01-05", Waist: models.Waist{Inches: 34}})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, &models.DailyRecord{Date: "2024-01-05"})
	require.NoError(t, err)

	records := s.ReadAll(ctx)
	require.Len(t, records, 1)
	assert.Zero(t, records[0].Waist.Inches)
}

func TestMergeFillsDateCompanion(t *testing.T) {
	existing := &models.DailyRecord{Date: "2024-01-05", BodyComposition: models.BodyComposition{WeightKg: 70.2}}
	row := &models.DailyRecord{Date: "2024-01-05", Activity: models.Activity{Steps: 3}}

	merged := Merge(existing, row, []models.PreserveGroup{models.BodyCompositionGroup})
	assert.Equal(t, 70.2, merged.BodyComposition.WeightKg)
	assert.Equal(t, "2024-01-05", merged.BodyComposition.Date, "missing source date falls back to the row date")
	assert.Equal(t, 3, merged.Activity.Steps)
	assert.Zero(t, row.BodyComposition.WeightKg, "input row is not modified")
}

func TestUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	_, err := s.Upsert(ctx, fullRecord("2024-01-01"), models.SlowlyChanging...)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, fullRecord("2024-01-02"), models.SlowlyChanging...)
	require.NoError(t, err)
	once, err := s.Export(ctx, FormatCSV)
	require.NoError(t, err)

	_, err = s.Upsert(ctx, fullRecord("2024-01-02"), models.SlowlyChanging...)
	require.NoError(t, err)
	twice, err := s.Export(ctx, FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
}

func TestSortInvariant(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	for _, d := range []string{"2024-03-02", "2024-01-15", "2024-02-29", "2024-01-15", "2023-12-31", "2024-03-02"} {
		_, err := s.Upsert(ctx, &models.DailyRecord{Date: d, Activity: models.Activity{Steps: 1}}, models.SlowlyChanging...)
		require.NoError(t, err)
	}

	records := s.ReadAll(ctx)
	require.Len(t, records, 4)
	for i := 1; i < len(records); i++ {
		assert.Less(t, records[i-1].Date, records[i].Date)
	}
}

func TestWriteLeavesSingleObject(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore()

	for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		_, err := s.Upsert(ctx, &models.DailyRecord{Date: d})
		require.NoError(t, err)
	}

	objects, err := mem.List(ctx, DefaultName)
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestReadAllPicksNewestDuplicate(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore()

	_, err := mem.Put(ctx, DefaultName, []byte("date,steps\n2024-01-01,1\n"))
	require.NoError(t, err)
	_, err = mem.Put(ctx, DefaultName, []byte("date,steps\n2024-01-01,2\n"))
	require.NoError(t, err)

	records := s.ReadAll(ctx)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Activity.Steps)

	removed, err := s.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	objects, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, 2, s.ReadAll(ctx)[0].Activity.Steps)
}

func TestDeleteFailureKeepsNewestReadable(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore()

	_, err := s.Upsert(ctx, &models.DailyRecord{Date: "2024-01-01", Activity: models.Activity{Steps: 1}})
	require.NoError(t, err)

	mem.Fail = func(op string) error {
		if op == "delete" {
			return errors.New("delete timed out")
		}
		return nil
	}
	_, err = s.Upsert(ctx, &models.DailyRecord{Date: "2024-01-01", Activity: models.Activity{Steps: 2}})
	require.NoError(t, err, "delete failures are not write failures")

	objects, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, objects, 2)
	assert.Equal(t, 2, s.ReadAll(ctx)[0].Activity.Steps)
}

func TestReadFailureDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore()

	_, err := s.Upsert(ctx, &models.DailyRecord{Date: "2024-01-01"})
	require.NoError(t, err)

	mem.Fail = func(op string) error {
		if op == "get" {
			return errors.New("network down")
		}
		return nil
	}
	assert.Empty(t, s.ReadAll(ctx))

	_, ok := s.Latest(ctx)
	assert.False(t, ok)
}

func TestApplyAbortsOnReadFailure(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore()

	_, err := s.Upsert(ctx, &models.DailyRecord{Date: "2024-01-01"})
	require.NoError(t, err)

	puts := 0
	mem.Fail = func(op string) error {
		switch op {
		case "get":
			return errors.New("network down")
		case "put":
			puts++
		}
		return nil
	}

	called := false
	_, err = s.Apply(ctx, func([]*models.DailyRecord) (*models.DailyRecord, error) {
		called = true
		return &models.DailyRecord{Date: "2024-01-02"}, nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.Zero(t, puts)

	mem.Fail = nil
	assert.Len(t, s.ReadAll(ctx), 1, "ledger is left untouched")
}

func TestApplyNilRowSkipsWrite(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore()

	row, err := s.Apply(ctx, func([]*models.DailyRecord) (*models.DailyRecord, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, row)

	objects, err := mem.List(ctx, DefaultName)
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestWriteFailureReturnsMergedRow(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore()
	mem.Fail = func(op string) error {
		if op == "put" {
			return errors.New("quota exceeded")
		}
		return nil
	}

	row, err := s.Upsert(ctx, &models.DailyRecord{Date: "2024-01-01", Activity: models.Activity{Steps: 5}})
	require.Error(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 5, row.Activity.Steps)
}

func TestApplyDetectsConflict(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore()

	_, err := s.Apply(ctx, func([]*models.DailyRecord) (*models.DailyRecord, error) {
		_, putErr := mem.Put(ctx, DefaultName, []byte("date\n2023-12-31\n"))
		require.NoError(t, putErr)
		return &models.DailyRecord{Date: "2024-01-01"}, nil
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestWriterRetriesConflict(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore()
	w := NewWriter(s, 3)
	defer w.Close()

	calls := 0
	row, err := w.Apply(ctx, func(history []*models.DailyRecord) (*models.DailyRecord, error) {
		calls++
		if calls == 1 {
			_, putErr := mem.Put(ctx, DefaultName, []byte("date,steps\n2023-12-31,7\n"))
			if putErr != nil {
				return nil, putErr
			}
		}
		return &models.DailyRecord{Date: "2024-01-01", Activity: models.Activity{Steps: len(history)}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, row.Activity.Steps, "retry sees the interleaved write")

	records := s.ReadAll(ctx)
	require.Len(t, records, 2)
	assert.Equal(t, "2023-12-31", records[0].Date)
	assert.Equal(t, 7, records[0].Activity.Steps)
}

func TestWriterSerializesConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	w := NewWriter(s, 0)
	defer w.Close()

	dates := []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06"}
	var wg sync.WaitGroup
	for _, d := range dates {
		wg.Add(1)
		go func(d string) {
			defer wg.Done()
			_, err := w.Upsert(ctx, &models.DailyRecord{Date: d, Activity: models.Activity{Steps: 1}}, models.SlowlyChanging...)
			assert.NoError(t, err)
		}(d)
	}
	wg.Wait()

	assert.Len(t, s.ReadAll(ctx), len(dates), "no update is lost")
}

func TestWriterClosed(t *testing.T) {
	s, _ := newTestStore()
	w := NewWriter(s, 1)
	w.Close()
	w.Close()

	_, err := w.Upsert(context.Background(), &models.DailyRecord{Date: "2024-01-01"})
	assert.ErrorIs(t, err, ErrWriterClosed)
}

func TestCarryForward(t *testing.T) {
	history := []*models.DailyRecord{
		{Date: "2024-01-01", BodyComposition: models.BodyComposition{WeightKg: 70.2}},
		{Date: "2024-01-03", Activity: models.Activity{Steps: 10}},
	}

	bc, ok := CarryBodyComposition(history, "2024-01-05")
	require.True(t, ok)
	assert.Equal(t, 70.2, bc.WeightKg)
	assert.Equal(t, "2024-01-01", bc.Date)

	_, ok = CarryWaist(history, "2024-01-05")
	assert.False(t, ok)

	_, ok = CarryBodyComposition(nil, "2024-01-05")
	assert.False(t, ok, "empty history")

	_, ok = CarryBodyComposition(history, "2023-12-31")
	assert.False(t, ok, "rows after the day are ignored")
}

func TestCarryForwardKeepsSourceDate(t *testing.T) {
	history := []*models.DailyRecord{
		{Date: "2024-01-04", Waist: models.Waist{Inches: 33, Date: "2024-01-02"}},
		{Date: "2024-01-02", Waist: models.Waist{Inches: 33, Date: "2024-01-02"}},
	}

	res, ok := Resolve(history, models.WaistGroup, "")
	require.True(t, ok)
	assert.Equal(t, "2024-01-04", res.Row.Date, "newest row wins")
	assert.Equal(t, "2024-01-02", res.SourceDate)

	dst := &models.DailyRecord{Date: "2024-01-05"}
	assert.True(t, CarryInto(dst, models.WaistGroup, res))
	assert.Equal(t, models.Waist{Inches: 33, Date: "2024-01-02"}, dst.Waist)

	fresh := &models.DailyRecord{Date: "2024-01-05", Waist: models.Waist{Inches: 32, Date: "2024-01-05"}}
	assert.False(t, CarryInto(fresh, models.WaistGroup, res), "fresh values win")
	assert.Equal(t, 32.0, fresh.Waist.Inches)
}

func TestExportFormats(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	_, err := s.Upsert(ctx, fullRecord("2024-01-02"))
	require.NoError(t, err)

	csvData, err := s.Export(ctx, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csvData), "date,steps,"))

	jsonData, err := s.Export(ctx, "JSON")
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"date": "2024-01-02"`)
	assert.Contains(t, string(jsonData), `"totalSteps": 10432`)

	yamlData, err := s.Export(ctx, "yml")
	require.NoError(t, err)
	assert.Contains(t, string(yamlData), "2024-01-02")
	assert.Contains(t, string(yamlData), "total_steps: 10432")

	_, err = s.Export(ctx, "xlsx")
	assert.Error(t, err)
}

func TestExportEmptyLedger(t *testing.T) {
	s, _ := newTestStore()
	data, err := s.Export(context.Background(), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
