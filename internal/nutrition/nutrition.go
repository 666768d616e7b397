// Package nutrition computes calorie targets and validates profile input for MealMate.
package nutrition

import (
	"math"

	"github.com/BTreeMap/MealMate/internal/models"
)

// Goal adjustments applied after the activity multiplier.
const (
	BulkSurplus = 250.0
	CutFactor   = 0.85
)

// activityMultipliers maps activity levels to their TDEE factor.
var activityMultipliers = map[models.ActivityLevel]float64{
	models.ActivitySedentary:  1.2,
	models.ActivityLight:      1.375,
	models.ActivityModerate:   1.55,
	models.ActivityActive:     1.725,
	models.ActivityVeryActive: 1.9,
}

// ComputeBMR returns the basal metabolic rate (Mifflin-St Jeor), rounded to 2 decimals.
func ComputeBMR(gender models.Gender, age int, height, weight float64) float64 {
	bmr := 9.99*weight + 6.25*height - 4.92*float64(age)
	if gender == models.GenderMale {
		bmr += 5
	} else {
		bmr -= 161
	}
	return Round2(bmr)
}

// ComputeDailyCalories applies the activity multiplier, then the goal adjustment.
// Unknown activity levels fall back to the sedentary factor.
func ComputeDailyCalories(bmr float64, level models.ActivityLevel, goal models.Goal) float64 {
	multiplier, ok := activityMultipliers[level]
	if !ok {
		multiplier = activityMultipliers[models.ActivitySedentary]
	}
	daily := bmr * multiplier
	switch goal {
	case models.GoalBulk:
		daily += BulkSurplus
	case models.GoalCut:
		daily *= CutFactor
	}
	return Round2(daily)
}

// DailyTarget computes BMR and the daily calorie target for a complete profile.
func DailyTarget(body models.BodyProfile) (bmr, daily float64) {
	bmr = ComputeBMR(body.Gender, body.Age, body.Height, body.Weight)
	return bmr, ComputeDailyCalories(bmr, body.Activity, body.Goal)
}

// Round2 rounds half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
