package nutrition

import (
	"math"
	"strconv"
	"strings"

	"github.com/BTreeMap/MealMate/internal/models"
)

// Accepted ranges for profile attributes, inclusive.
const (
	MinAge    = 10
	MaxAge    = 100
	MinHeight = 100.0
	MaxHeight = 250.0
	MinWeight = 30.0
	MaxWeight = 120.0
)

// ParseGoalToken maps a goal code ("1".."3") to its goal.
func ParseGoalToken(s string) (models.Goal, bool) {
	return models.GoalFromCode(strings.TrimSpace(s))
}

// ParseGender accepts exactly "男" or "女".
func ParseGender(s string) (models.Gender, bool) {
	switch g := models.Gender(strings.TrimSpace(s)); g {
	case models.GenderMale, models.GenderFemale:
		return g, true
	}
	return "", false
}

// ParseAge accepts a whole number of years in range.
func ParseAge(s string) (int, bool) {
	age, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || age < MinAge || age > MaxAge {
		return 0, false
	}
	return age, true
}

// ParseHeight accepts a height in centimetres in range.
func ParseHeight(s string) (float64, bool) {
	return parseRange(s, MinHeight, MaxHeight)
}

// ParseWeight accepts a weight in kilograms in range.
func ParseWeight(s string) (float64, bool) {
	return parseRange(s, MinWeight, MaxWeight)
}

// ParseActivityToken maps an activity code ("1".."5") to its level.
func ParseActivityToken(s string) (models.ActivityLevel, bool) {
	return models.ActivityFromCode(strings.TrimSpace(s))
}

// ParseCalories accepts any finite number. The meal-plan wizard applies no range.
func ParseCalories(s string) (float64, bool) {
	return parseFloat(s)
}

// ParseFoodCalories accepts a finite, non-negative number for a food log entry.
func ParseFoodCalories(s string) (float64, bool) {
	v, ok := parseFloat(s)
	if !ok || v < 0 {
		return 0, false
	}
	return v, true
}

func parseRange(s string, lo, hi float64) (float64, bool) {
	v, ok := parseFloat(s)
	if !ok || v < lo || v > hi {
		return 0, false
	}
	return v, true
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
