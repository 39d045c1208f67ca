// ABOUTME: Normalizer for body battery reports.
// ABOUTME: Uses the first device snapshot; high/low/current come from its level series.
package normalize

import (
	"math"

	"github.com/harperreed/wellness/internal/models"
)

var bodyBatteryRules = []rule[models.BodyBattery]{
	intField(func(b *models.BodyBattery) *int { return &b.Charged }, "charged", "bodyBatteryChargedValue"),
	intField(func(b *models.BodyBattery) *int { return &b.Drained }, "drained", "bodyBatteryDrainedValue"),
}

// summary fields used when a snapshot carries no level series.
var bodyBatteryLevelRules = []rule[models.BodyBattery]{
	intField(func(b *models.BodyBattery) *int { return &b.Highest }, "bodyBatteryHighestValue"),
	intField(func(b *models.BodyBattery) *int { return &b.Lowest }, "bodyBatteryLowestValue"),
	intField(func(b *models.BodyBattery) *int { return &b.Current }, "bodyBatteryMostRecentValue"),
}

// BodyBattery normalizes a body battery payload.
func BodyBattery(payload []byte) models.BodyBattery {
	var out models.BodyBattery
	snapshot := first(parse(payload))
	applyRules(snapshot, &out, bodyBatteryRules)

	levels := series(snapshot.Get("bodyBatteryValuesArray"))
	if len(levels) == 0 {
		applyRules(snapshot, &out, bodyBatteryLevelRules)
		return out
	}

	highest, lowest := math.Inf(-1), math.Inf(1)
	for _, s := range levels {
		highest = math.Max(highest, s.level)
		lowest = math.Min(lowest, s.level)
	}
	out.Highest = int(math.Round(highest))
	out.Lowest = int(math.Round(lowest))
	out.Current = int(math.Round(levels[len(levels)-1].level))
	return out
}
