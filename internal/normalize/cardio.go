// ABOUTME: Normalizers for HRV, respiration, SpO2, and skin temperature.
// ABOUTME: Each reads a primary nested summary, falling back to the legacy top-level layout.
package normalize

import "github.com/harperreed/wellness/internal/models"

var hrvRules = []rule[models.HRV]{
	intField(func(h *models.HRV) *int { return &h.LastNightAvg }, "lastNightAvg", "lastNight", "weeklyAvg"),
	textField(func(h *models.HRV) *string { return &h.Status }, "status", "hrvStatus"),
	intField(func(h *models.HRV) *int { return &h.BalancedLow }, "baseline.balancedLow", "balancedLow"),
	intField(func(h *models.HRV) *int { return &h.BalancedUpper }, "baseline.balancedUpper", "balancedUpper"),
}

// HRV normalizes an overnight HRV payload.
func HRV(payload []byte) models.HRV {
	var out models.HRV
	applyRules(section(parse(payload), "hrvSummary", self), &out, hrvRules)
	return out
}

var respirationRules = []rule[models.Respiration]{
	floatField(func(r *models.Respiration) *float64 { return &r.Average }, "avgWakingRespirationValue", "averageRespirationValue", "avgRespirationValue"),
	floatField(func(r *models.Respiration) *float64 { return &r.Min }, "lowestRespirationValue", "minRespirationValue"),
	floatField(func(r *models.Respiration) *float64 { return &r.Max }, "highestRespirationValue", "maxRespirationValue"),
}

// Respiration normalizes an all-day respiration payload.
func Respiration(payload []byte) models.Respiration {
	var out models.Respiration
	applyRules(section(first(parse(payload)), "respirationSummary", "allDayRespiration", self), &out, respirationRules)
	return out
}

var spo2Rules = []rule[models.SpO2]{
	floatField(func(s *models.SpO2) *float64 { return &s.Average }, "averageSpO2", "averageSpO2Value", "avgSpo2"),
	floatField(func(s *models.SpO2) *float64 { return &s.Min }, "lowestSpO2", "lowestSpO2Value", "minSpo2"),
}

// SpO2 normalizes an all-day pulse-ox payload.
func SpO2(payload []byte) models.SpO2 {
	var out models.SpO2
	applyRules(section(first(parse(payload)), "spo2Summary", "allDaySpO2", self), &out, spo2Rules)
	return out
}

type skinTemp struct{ Variance float64 }

var skinTempRules = []rule[skinTemp]{
	floatField(func(s *skinTemp) *float64 { return &s.Variance }, "avgDeviationCelsius", "deviation", "skinTempVariance"),
}

// SkinTemperature normalizes a skin temperature payload to its deviation from baseline.
func SkinTemperature(payload []byte) float64 {
	var out skinTemp
	applyRules(section(first(parse(payload)), "temperatureDeviation", "skinTemperature", self), &out, skinTempRules)
	return out.Variance
}
