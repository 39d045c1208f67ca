// ABOUTME: DailyRecord model, one normalized row per calendar date.
// ABOUTME: Groups fields by category; body composition and waist are slowly-changing.
package models

import "time"

// DateLayout is the ledger's date key format.
const DateLayout = "2006-01-02"

// Activity holds the daily summary counters.
type Activity struct {
	Steps            int     `json:"totalSteps" yaml:"total_steps"`
	StepsYesterday   int     `json:"stepsYesterday" yaml:"steps_yesterday"`
	DistanceMeters   float64 `json:"distanceMeters" yaml:"distance_meters"`
	FloorsClimbed    float64 `json:"floorsClimbed" yaml:"floors_climbed"`
	RestingHeartRate int     `json:"restingHeartRate" yaml:"resting_heart_rate"`
	MinHeartRate     int     `json:"minHeartRate" yaml:"min_heart_rate"`
	MaxHeartRate     int     `json:"maxHeartRate" yaml:"max_heart_rate"`
	ActiveCalories   int     `json:"activeKilocalories" yaml:"active_kilocalories"`
	TotalCalories    int     `json:"totalKilocalories" yaml:"total_kilocalories"`
	IntensityMinutes int     `json:"intensityMinutes" yaml:"intensity_minutes"`
	ModerateMinutes  int     `json:"moderateIntensityMinutes" yaml:"moderate_intensity_minutes"`
	VigorousMinutes  int     `json:"vigorousIntensityMinutes" yaml:"vigorous_intensity_minutes"`
}

// Sleep holds last night's sleep summary. Timestamps are epoch milliseconds (GMT).
type Sleep struct {
	OverallScore     int     `json:"overallScore" yaml:"overall_score"`
	TotalSeconds     int     `json:"totalSeconds" yaml:"total_seconds"`
	DeepSeconds      int     `json:"deepSeconds" yaml:"deep_seconds"`
	LightSeconds     int     `json:"lightSeconds" yaml:"light_seconds"`
	REMSeconds       int     `json:"remSeconds" yaml:"rem_seconds"`
	AwakeSeconds     int     `json:"awakeSeconds" yaml:"awake_seconds"`
	AvgStress        float64 `json:"avgStress" yaml:"avg_stress"`
	AvgSpO2          float64 `json:"avgSpO2" yaml:"avg_spo2"`
	AvgRespiration   float64 `json:"avgRespiration" yaml:"avg_respiration"`
	StartTime        int64   `json:"startTime" yaml:"start_time"`
	EndTime          int64   `json:"endTime" yaml:"end_time"`
	ConsistencyScore int     `json:"consistencyScore" yaml:"consistency_score"`
	AlignmentScore   int     `json:"alignmentScore" yaml:"alignment_score"`
	RestfulnessScore int     `json:"restfulnessScore" yaml:"restfulness_score"`
}

// Stress holds bucketed stress durations in seconds.
type Stress struct {
	AverageLevel          int `json:"averageLevel" yaml:"average_level"`
	MaxLevel              int `json:"maxLevel" yaml:"max_level"`
	RestDurationSeconds   int `json:"restDurationSeconds" yaml:"rest_duration_seconds"`
	LowDurationSeconds    int `json:"lowDurationSeconds" yaml:"low_duration_seconds"`
	MediumDurationSeconds int `json:"mediumDurationSeconds" yaml:"medium_duration_seconds"`
	HighDurationSeconds   int `json:"highDurationSeconds" yaml:"high_duration_seconds"`
}

// BodyBattery holds the day's energy levels.
type BodyBattery struct {
	Current int `json:"current" yaml:"current"`
	Highest int `json:"highest" yaml:"highest"`
	Lowest  int `json:"lowest" yaml:"lowest"`
	Charged int `json:"charged" yaml:"charged"`
	Drained int `json:"drained" yaml:"drained"`
}

// HRV holds the overnight heart-rate variability summary.
type HRV struct {
	LastNightAvg  int    `json:"lastNightAvg" yaml:"last_night_avg"`
	Status        string `json:"status" yaml:"status"`
	BalancedLow   int    `json:"balancedLow" yaml:"balanced_low"`
	BalancedUpper int    `json:"balancedUpper" yaml:"balanced_upper"`
}

// TrainingReadiness holds the morning readiness score.
type TrainingReadiness struct {
	Score int    `json:"score" yaml:"score"`
	Level string `json:"level" yaml:"level"`
}

// TrainingStatus holds training status, VO2max and load figures for one device.
type TrainingStatus struct {
	StatusKey       int     `json:"statusKey" yaml:"status_key"`
	StatusLabel     string  `json:"statusLabel" yaml:"status_label"`
	VO2Max          float64 `json:"vo2Max" yaml:"vo2_max"`
	FitnessAge      float64 `json:"fitnessAge" yaml:"fitness_age"`
	FitnessTrend    int     `json:"fitnessTrend" yaml:"fitness_trend"`
	AcuteLoad       float64 `json:"acuteLoad" yaml:"acute_load"`
	ChronicLoad     float64 `json:"chronicLoad" yaml:"chronic_load"`
	LoadRatio       float64 `json:"loadRatio" yaml:"load_ratio"`
	LoadStatus      string  `json:"loadStatus" yaml:"load_status"`
	LoadBalance     string  `json:"loadBalance" yaml:"load_balance"`
	AerobicLowLoad  float64 `json:"aerobicLowLoad" yaml:"aerobic_low_load"`
	AerobicHighLoad float64 `json:"aerobicHighLoad" yaml:"aerobic_high_load"`
	AnaerobicLoad   float64 `json:"anaerobicLoad" yaml:"anaerobic_load"`
}

// Respiration holds all-day breaths per minute.
type Respiration struct {
	Average float64 `json:"average" yaml:"average"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
}

// SpO2 holds all-day blood oxygen saturation percentages.
type SpO2 struct {
	Average float64 `json:"average" yaml:"average"`
	Min     float64 `json:"min" yaml:"min"`
}

// BodyComposition is slowly-changing; Date is the measurement date, not the row date.
type BodyComposition struct {
	WeightKg     float64 `json:"weightKg" yaml:"weight_kg"`
	WeightLbs    float64 `json:"weightLbs" yaml:"weight_lbs"`
	BodyFatPct   float64 `json:"bodyFatPct" yaml:"body_fat_pct"`
	BodyWaterPct float64 `json:"bodyWaterPct" yaml:"body_water_pct"`
	MuscleMassKg float64 `json:"muscleMassKg" yaml:"muscle_mass_kg"`
	Date         string  `json:"date" yaml:"date"`
}

// Present reports whether the group carries a usable measurement.
func (b BodyComposition) Present() bool { return b.WeightKg > 0 }

// Waist is slowly-changing; Date is the measurement date, not the row date.
type Waist struct {
	Inches float64 `json:"inches" yaml:"inches"`
	Date   string  `json:"date" yaml:"date"`
}

// Present reports whether the group carries a usable measurement.
func (w Waist) Present() bool { return w.Inches > 0 }

// DailyRecord is one ledger row. Zero values mean "not reported".
type DailyRecord struct {
	Date              string            `json:"date" yaml:"date"`
	Activity          Activity          `json:"summary" yaml:"summary"`
	Sleep             Sleep             `json:"sleep" yaml:"sleep"`
	Stress            Stress            `json:"stress" yaml:"stress"`
	BodyBattery       BodyBattery       `json:"bodyBattery" yaml:"body_battery"`
	HRV               HRV               `json:"hrv" yaml:"hrv"`
	TrainingReadiness TrainingReadiness `json:"trainingReadiness" yaml:"training_readiness"`
	TrainingStatus    TrainingStatus    `json:"trainingStatus" yaml:"training_status"`
	Respiration       Respiration       `json:"respiration" yaml:"respiration"`
	SpO2              SpO2              `json:"spo2" yaml:"spo2"`
	SkinTempVariance  float64           `json:"skinTempVariance" yaml:"skin_temp_variance"`
	BodyComposition   BodyComposition   `json:"bodyComposition" yaml:"body_composition"`
	Waist             Waist             `json:"waist" yaml:"waist"`
}

// NewDailyRecord creates an empty record for the given date.
func NewDailyRecord(date time.Time) *DailyRecord {
	return &DailyRecord{Date: date.Format(DateLayout)}
}

// Day parses the record's date key.
func (r *DailyRecord) Day() (time.Time, error) {
	return time.Parse(DateLayout, r.Date)
}

// PreserveGroup names a slowly-changing field group by its ledger columns.
// Primary decides presence; DateColumn is the source-date companion.
type PreserveGroup struct {
	Name       string
	Primary    string
	Columns    []string
	DateColumn string
}

var (
	// BodyCompositionGroup is the body composition column group.
	BodyCompositionGroup = PreserveGroup{
		Name:       "body_composition",
		Primary:    "weight_kg",
		Columns:    []string{"weight_kg", "weight_lbs", "body_fat_pct", "body_water_pct", "muscle_mass_kg"},
		DateColumn: "body_comp_date",
	}

	// WaistGroup is the waist column group.
	WaistGroup = PreserveGroup{
		Name:       "waist",
		Primary:    "waist_inches",
		Columns:    []string{"waist_inches"},
		DateColumn: "waist_date",
	}

	// SlowlyChanging lists every carry-forward group.
	SlowlyChanging = []PreserveGroup{BodyCompositionGroup, WaistGroup}
)
