// ABOUTME: Normalizer for body composition (weigh-ins).
// ABOUTME: Takes the newest entry, else the running average; grams become kg and lbs.
package normalize

import (
	"time"

	"github.com/harperreed/wellness/internal/models"
	"github.com/tidwall/gjson"
)

const (
	gramsPerKilogram = 1000.0
	gramsPerPound    = 453.592
)

type rawBodyComposition struct {
	WeightGrams     float64
	MuscleMassGrams float64
	BodyFatPct      float64
	BodyWaterPct    float64
}

var bodyCompRules = []rule[rawBodyComposition]{
	floatField(func(b *rawBodyComposition) *float64 { return &b.WeightGrams }, "weight"),
	floatField(func(b *rawBodyComposition) *float64 { return &b.MuscleMassGrams }, "muscleMass"),
	floatField(func(b *rawBodyComposition) *float64 { return &b.BodyFatPct }, "bodyFat"),
	floatField(func(b *rawBodyComposition) *float64 { return &b.BodyWaterPct }, "bodyWater"),
}

// BodyComposition normalizes a weigh-in payload. Entries are newest-first.
// When no entry exists the payload's running average is used, dated fetchDate.
func BodyComposition(payload []byte, fetchDate time.Time) models.BodyComposition {
	doc := parse(payload)

	entries := doc.Get("dateWeightList")
	if !entries.IsArray() && doc.IsArray() {
		entries = doc
	}
	if entry := first(entries); entries.IsArray() && isNonEmptyObject(entry) {
		out := convertBodyComposition(entry)
		out.Date = measurementDate(entry)
		return out
	}

	avg := section(doc, "totalAverage", "average")
	out := convertBodyComposition(avg)
	if out.Present() {
		out.Date = fetchDate.Format(models.DateLayout)
	}
	return out
}

func convertBodyComposition(doc gjson.Result) models.BodyComposition {
	var raw rawBodyComposition
	applyRules(doc, &raw, bodyCompRules)
	return models.BodyComposition{
		WeightKg:     round1(raw.WeightGrams / gramsPerKilogram),
		WeightLbs:    round1(raw.WeightGrams / gramsPerPound),
		BodyFatPct:   round1(raw.BodyFatPct),
		BodyWaterPct: round1(raw.BodyWaterPct),
		MuscleMassKg: round1(raw.MuscleMassGrams / gramsPerKilogram),
	}
}

func measurementDate(entry gjson.Result) string {
	if v, ok := lookup(entry, gjson.String, "calendarDate"); ok {
		return v.Str
	}
	for _, p := range []string{"date", "timestampGMT"} {
		if t, ok := timestamp(entry.Get(p)); ok {
			return t.Format(models.DateLayout)
		}
	}
	return ""
}
