// ABOUTME: Normalizer for last night's sleep.
// ABOUTME: Stage durations come from direct fields, else from summed sleep-level intervals.
package normalize

import (
	"strings"

	"github.com/harperreed/wellness/internal/models"
	"github.com/tidwall/gjson"
)

var sleepRules = []rule[models.Sleep]{
	intField(func(s *models.Sleep) *int { return &s.OverallScore }, "sleepScores.overall.value", "sleepScoreValue"),
	intField(func(s *models.Sleep) *int { return &s.TotalSeconds }, "sleepTimeSeconds"),
	floatField(func(s *models.Sleep) *float64 { return &s.AvgStress }, "avgSleepStress"),
	floatField(func(s *models.Sleep) *float64 { return &s.AvgSpO2 }, "averageSpO2Value"),
	floatField(func(s *models.Sleep) *float64 { return &s.AvgRespiration }, "averageRespirationValue"),
	int64Field(func(s *models.Sleep) *int64 { return &s.StartTime }, "sleepStartTimestampGMT"),
	int64Field(func(s *models.Sleep) *int64 { return &s.EndTime }, "sleepEndTimestampGMT"),
	intField(func(s *models.Sleep) *int { return &s.ConsistencyScore }, "sleepScores.sleepConsistency.value", "sleepConsistencyScore"),
	intField(func(s *models.Sleep) *int { return &s.AlignmentScore }, "sleepScores.sleepAlignment.value", "sleepAlignmentScore"),
	intField(func(s *models.Sleep) *int { return &s.RestfulnessScore }, "sleepScores.restlessness.value", "sleepScores.restfulness.value", "restfulnessScore"),
}

var stageRules = []rule[models.Sleep]{
	intField(func(s *models.Sleep) *int { return &s.DeepSeconds }, "deepSleepSeconds", "sleepLevels.deepSleepSeconds"),
	intField(func(s *models.Sleep) *int { return &s.LightSeconds }, "lightSleepSeconds", "sleepLevels.lightSleepSeconds"),
	intField(func(s *models.Sleep) *int { return &s.REMSeconds }, "remSleepSeconds", "sleepLevels.remSleepSeconds"),
	intField(func(s *models.Sleep) *int { return &s.AwakeSeconds }, "awakeSleepSeconds", "sleepLevels.awakeSleepSeconds"),
}

// stage labels keyed by the provider's numeric activity level.
var stageByLevel = map[int64]string{0: "deep", 1: "light", 2: "rem", 3: "awake"}

// Sleep normalizes a sleep payload.
func Sleep(payload []byte) models.Sleep {
	var out models.Sleep
	doc := parse(payload)
	daily := section(doc, "dailySleepDTO", self)
	applyRules(daily, &out, sleepRules)

	if hasDirectStages(daily) {
		applyRules(daily, &out, stageRules)
		return out
	}

	intervals := doc.Get("sleepLevels")
	if !intervals.IsArray() {
		intervals = daily.Get("sleepLevels")
	}
	totals := stageTotals(intervals)
	out.DeepSeconds = totals["deep"]
	out.LightSeconds = totals["light"]
	out.REMSeconds = totals["rem"]
	out.AwakeSeconds = totals["awake"]
	return out
}

func hasDirectStages(daily gjson.Result) bool {
	for _, r := range stageRules {
		if _, ok := lookup(daily, r.kind, r.paths...); ok {
			return true
		}
	}
	return false
}

// stageTotals sums (end - start) per stage label, in whole seconds.
func stageTotals(intervals gjson.Result) map[string]int {
	totals := make(map[string]int)
	if !intervals.IsArray() {
		return totals
	}
	intervals.ForEach(func(_, iv gjson.Result) bool {
		label := stageLabel(iv)
		if label == "" {
			return true
		}
		start, ok := timestamp(iv.Get("startGMT"))
		if !ok {
			return true
		}
		end, ok := timestamp(iv.Get("endGMT"))
		if !ok || end.Before(start) {
			return true
		}
		totals[label] += int(end.Sub(start).Seconds())
		return true
	})
	return totals
}

func stageLabel(iv gjson.Result) string {
	v := iv.Get("activityLevel")
	if !v.Exists() {
		v = iv.Get("stage")
	}
	switch v.Type {
	case gjson.Number:
		return stageByLevel[v.Int()]
	case gjson.String:
		label := strings.ToLower(v.Str)
		switch label {
		case "deep", "light", "rem", "awake":
			return label
		}
	}
	return ""
}
