// ABOUTME: Normalizer for the daily activity summary.
// ABOUTME: Steps, distance, heart rate, calories, and intensity minutes.
package normalize

import "github.com/harperreed/wellness/internal/models"

var activityRules = []rule[models.Activity]{
	intField(func(a *models.Activity) *int { return &a.Steps }, "totalSteps", "steps"),
	floatField(func(a *models.Activity) *float64 { return &a.DistanceMeters }, "totalDistanceMeters", "distanceInMeters"),
	floatField(func(a *models.Activity) *float64 { return &a.FloorsClimbed }, "floorsAscended", "floorsClimbed"),
	intField(func(a *models.Activity) *int { return &a.RestingHeartRate }, "restingHeartRate", "restingHeartRateValue"),
	intField(func(a *models.Activity) *int { return &a.MinHeartRate }, "minHeartRate"),
	intField(func(a *models.Activity) *int { return &a.MaxHeartRate }, "maxHeartRate"),
	intField(func(a *models.Activity) *int { return &a.ActiveCalories }, "activeKilocalories"),
	intField(func(a *models.Activity) *int { return &a.TotalCalories }, "totalKilocalories"),
	intField(func(a *models.Activity) *int { return &a.IntensityMinutes }, "intensityMinutes"),
	intField(func(a *models.Activity) *int { return &a.ModerateMinutes }, "moderateIntensityMinutes"),
	intField(func(a *models.Activity) *int { return &a.VigorousMinutes }, "vigorousIntensityMinutes"),
}

// Activity normalizes a daily summary payload.
func Activity(payload []byte) models.Activity {
	var out models.Activity
	doc := section(first(parse(payload)), "summary", self)
	applyRules(doc, &out, activityRules)

	if out.IntensityMinutes == 0 {
		out.IntensityMinutes = out.ModerateMinutes + out.VigorousMinutes
	}
	return out
}

// Steps returns only the step count of a daily summary payload.
func Steps(payload []byte) int {
	return Activity(payload).Steps
}
