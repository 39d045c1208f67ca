// ABOUTME: Normalizers for training readiness and training status.
// ABOUTME: Training status is demultiplexed from per-device maps, smallest device key first.
package normalize

import "github.com/harperreed/wellness/internal/models"

var readinessRules = []rule[models.TrainingReadiness]{
	intField(func(r *models.TrainingReadiness) *int { return &r.Score }, "score", "trainingReadinessScore"),
	textField(func(r *models.TrainingReadiness) *string { return &r.Level }, "level", "feedbackShort"),
}

// TrainingReadiness normalizes a readiness payload (a list of entries or one object).
func TrainingReadiness(payload []byte) models.TrainingReadiness {
	var out models.TrainingReadiness
	applyRules(section(first(parse(payload)), "trainingReadinessDTO", self), &out, readinessRules)
	return out
}

var vo2Rules = []rule[models.TrainingStatus]{
	floatField(func(t *models.TrainingStatus) *float64 { return &t.VO2Max },
		"mostRecentVO2Max.generic.vo2MaxPreciseValue", "mostRecentVO2Max.generic.vo2MaxValue", "vo2MaxPreciseValue", "vo2MaxValue"),
	floatField(func(t *models.TrainingStatus) *float64 { return &t.FitnessAge },
		"mostRecentVO2Max.generic.fitnessAge", "fitnessAge"),
}

var statusRules = []rule[models.TrainingStatus]{
	intField(func(t *models.TrainingStatus) *int { return &t.StatusKey }, "trainingStatus"),
	textField(func(t *models.TrainingStatus) *string { return &t.StatusLabel }, "trainingStatusFeedbackPhrase"),
	intField(func(t *models.TrainingStatus) *int { return &t.FitnessTrend }, "fitnessTrend"),
	floatField(func(t *models.TrainingStatus) *float64 { return &t.AcuteLoad }, "acuteTrainingLoadDTO.dailyTrainingLoadAcute", "dailyTrainingLoadAcute"),
	floatField(func(t *models.TrainingStatus) *float64 { return &t.ChronicLoad }, "acuteTrainingLoadDTO.dailyTrainingLoadChronic", "dailyTrainingLoadChronic"),
	floatField(func(t *models.TrainingStatus) *float64 { return &t.LoadRatio }, "acuteTrainingLoadDTO.dailyAcuteChronicWorkloadRatio", "dailyAcuteChronicWorkloadRatio"),
	textField(func(t *models.TrainingStatus) *string { return &t.LoadStatus }, "acuteTrainingLoadDTO.acwrStatus", "acwrStatus"),
}

var balanceRules = []rule[models.TrainingStatus]{
	floatField(func(t *models.TrainingStatus) *float64 { return &t.AerobicLowLoad }, "monthlyLoadAerobicLow"),
	floatField(func(t *models.TrainingStatus) *float64 { return &t.AerobicHighLoad }, "monthlyLoadAerobicHigh"),
	floatField(func(t *models.TrainingStatus) *float64 { return &t.AnaerobicLoad }, "monthlyLoadAnaerobic"),
	textField(func(t *models.TrainingStatus) *string { return &t.LoadBalance }, "trainingBalanceFeedbackPhrase"),
}

// TrainingStatus normalizes an aggregated training status payload.
func TrainingStatus(payload []byte) models.TrainingStatus {
	var out models.TrainingStatus
	doc := parse(payload)
	applyRules(doc, &out, vo2Rules)

	status := firstDevice(doc.Get("mostRecentTrainingStatus.latestTrainingStatusData"))
	if !status.Exists() {
		status = firstDevice(doc.Get("latestTrainingStatusData"))
	}
	if !status.Exists() {
		status = doc
	}
	applyRules(status, &out, statusRules)

	balance := firstDevice(doc.Get("mostRecentTrainingLoadBalance.metricsTrainingLoadBalanceDTOMap"))
	if !balance.Exists() {
		balance = firstDevice(doc.Get("metricsTrainingLoadBalanceDTOMap"))
	}
	if !balance.Exists() {
		balance = doc
	}
	applyRules(balance, &out, balanceRules)
	return out
}
