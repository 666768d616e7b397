package models

import "time"

// Layouts used by the tracker.
const (
	TrackingDateLayout = "2006-01-02"
	TimeOfDayLayout    = "15:04"
)

// FoodEntry is one logged food.
type FoodEntry struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Time     string  `json:"time"` // HH:MM
}

// DailyTracker is a user's calorie budget for one calendar day.
// ConsumedCalories always equals the sum of FoodLog calories.
type DailyTracker struct {
	TotalCalories    float64     `json:"total_calories"`
	ConsumedCalories float64     `json:"consumed_calories"`
	FoodLog          []FoodEntry `json:"food_log"`
	TrackingDate     string      `json:"date"`
}

// NewDailyTracker creates an empty tracker for the day of now.
func NewDailyTracker(total float64, now time.Time) *DailyTracker {
	return &DailyTracker{
		TotalCalories: total,
		FoodLog:       []FoodEntry{},
		TrackingDate:  now.Format(TrackingDateLayout),
	}
}

// Rollover resets the log when now falls on a different day than the tracker.
// The budget is kept. Returns whether a reset happened.
func (t *DailyTracker) Rollover(now time.Time) bool {
	today := now.Format(TrackingDateLayout)
	if t.TrackingDate == today {
		return false
	}
	t.ConsumedCalories = 0
	t.FoodLog = []FoodEntry{}
	t.TrackingDate = today
	return true
}

// LogFood appends an entry unless it would push consumption over the budget.
func (t *DailyTracker) LogFood(name string, calories float64, now time.Time) bool {
	t.Rollover(now)
	if t.ConsumedCalories+calories > t.TotalCalories {
		return false
	}
	t.FoodLog = append(t.FoodLog, FoodEntry{
		Name:     name,
		Calories: calories,
		Time:     now.Format(TimeOfDayLayout),
	})
	t.ConsumedCalories += calories
	return true
}

// RemoveFood deletes the earliest entry with exactly this name.
func (t *DailyTracker) RemoveFood(name string, now time.Time) bool {
	t.Rollover(now)
	for i, entry := range t.FoodLog {
		if entry.Name != name {
			continue
		}
		t.FoodLog = append(t.FoodLog[:i:i], t.FoodLog[i+1:]...)
		t.ConsumedCalories -= entry.Calories
		return true
	}
	return false
}

// Remaining returns the calories still available today.
func (t *DailyTracker) Remaining() float64 {
	return t.TotalCalories - t.ConsumedCalories
}
