// ABOUTME: Category enum for provider metric domains.
// ABOUTME: Each category is fetched and normalized independently.
package models

// Category identifies one provider data domain.
type Category string

const (
	CategoryActivity          Category = "activity"
	CategorySleep             Category = "sleep"
	CategoryStress            Category = "stress"
	CategoryBodyBattery       Category = "body_battery"
	CategoryBodyComposition   Category = "body_composition"
	CategoryHRV               Category = "hrv"
	CategoryTrainingReadiness Category = "training_readiness"
	CategoryTrainingStatus    Category = "training_status"
	CategoryRespiration       Category = "respiration"
	CategorySpO2              Category = "spo2"
	CategorySkinTemperature   Category = "skin_temperature"
)

// AllCategories lists every category in fetch order.
var AllCategories = []Category{
	CategoryActivity, CategorySleep, CategoryStress, CategoryBodyBattery,
	CategoryBodyComposition, CategoryHRV, CategoryTrainingReadiness,
	CategoryTrainingStatus, CategoryRespiration, CategorySpO2, CategorySkinTemperature,
}

// IsValidCategory checks if a string names a known category.
func IsValidCategory(s string) bool {
	for _, c := range AllCategories {
		if string(c) == s {
			return true
		}
	}
	return false
}
