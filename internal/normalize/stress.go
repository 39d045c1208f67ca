// ABOUTME: Normalizer for all-day stress.
// ABOUTME: Buckets a 3-minute sampled stress series into rest/low/medium/high durations.
package normalize

import "github.com/harperreed/wellness/internal/models"

// StressSampleSeconds is the interval each stress sample covers.
const StressSampleSeconds = 180

// Stress bucket upper bounds, inclusive.
const (
	stressRestMax   = 25
	stressLowMax    = 50
	stressMediumMax = 75
)

var stressRules = []rule[models.Stress]{
	intField(func(s *models.Stress) *int { return &s.AverageLevel }, "avgStressLevel", "averageStressLevel"),
	intField(func(s *models.Stress) *int { return &s.MaxLevel }, "maxStressLevel"),
}

var stressDurationRules = []rule[models.Stress]{
	intField(func(s *models.Stress) *int { return &s.RestDurationSeconds }, "restStressDuration"),
	intField(func(s *models.Stress) *int { return &s.LowDurationSeconds }, "lowStressDuration"),
	intField(func(s *models.Stress) *int { return &s.MediumDurationSeconds }, "mediumStressDuration"),
	intField(func(s *models.Stress) *int { return &s.HighDurationSeconds }, "highStressDuration"),
}

// Stress normalizes a stress payload. Negative levels are unmeasured and skipped.
// Without any measured samples the provider's own bucket durations are used.
func Stress(payload []byte) models.Stress {
	var out models.Stress
	doc := section(first(parse(payload)), "stressSummary", self)
	applyRules(doc, &out, stressRules)

	measured := 0
	for _, s := range series(doc.Get("stressValuesArray")) {
		if s.level < 0 {
			continue
		}
		measured++
		switch {
		case s.level <= stressRestMax:
			out.RestDurationSeconds += StressSampleSeconds
		case s.level <= stressLowMax:
			out.LowDurationSeconds += StressSampleSeconds
		case s.level <= stressMediumMax:
			out.MediumDurationSeconds += StressSampleSeconds
		default:
			out.HighDurationSeconds += StressSampleSeconds
		}
	}

	if measured == 0 {
		applyRules(doc, &out, stressDurationRules)
	}
	return out
}
