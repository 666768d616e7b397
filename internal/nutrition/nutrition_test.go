package nutrition

import (
	"math"
	"testing"

	"github.com/BTreeMap/MealMate/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeBMR(t *testing.T) {
	male := ComputeBMR(models.GenderMale, 30, 175, 70)
	if !almostEqual(male, 1650.45) {
		t.Errorf("expected male BMR 1650.45, got %v", male)
	}
	female := ComputeBMR(models.GenderFemale, 30, 175, 70)
	if !almostEqual(male-female, 166) {
		t.Errorf("male and female BMR should differ by 166, got %v", male-female)
	}
}

func TestComputeDailyCalories_MultiplierBeforeGoal(t *testing.T) {
	if got := ComputeDailyCalories(1500, models.ActivityModerate, models.GoalMaintain); !almostEqual(got, 2325) {
		t.Errorf("expected 2325, got %v", got)
	}
	if got := ComputeDailyCalories(1500, models.ActivityModerate, models.GoalCut); !almostEqual(got, 1976.25) {
		t.Errorf("expected 1976.25, got %v", got)
	}
	if got := ComputeDailyCalories(1500, models.ActivityModerate, models.GoalBulk); !almostEqual(got, 2575) {
		t.Errorf("expected 2575, got %v", got)
	}
}

func TestComputeDailyCalories_AllLevels(t *testing.T) {
	want := map[models.ActivityLevel]float64{
		models.ActivitySedentary:  1200,
		models.ActivityLight:      1375,
		models.ActivityModerate:   1550,
		models.ActivityActive:     1725,
		models.ActivityVeryActive: 1900,
	}
	for level, expected := range want {
		if got := ComputeDailyCalories(1000, level, models.GoalMaintain); !almostEqual(got, expected) {
			t.Errorf("%s: expected %v, got %v", level, expected, got)
		}
	}
}

func TestDailyTarget_FemaleCut(t *testing.T) {
	body := models.BodyProfile{
		Goal: models.GoalCut, Gender: models.GenderFemale, Age: 25, Height: 165, Weight: 60,
		Activity: models.ActivityLight,
	}
	bmr, daily := DailyTarget(body)
	if !almostEqual(bmr, 1346.65) {
		t.Errorf("expected BMR 1346.65, got %v", bmr)
	}
	expected := Round2((9.99*60 + 6.25*165 - 4.92*25 - 161) * 1.375 * 0.85)
	if !almostEqual(daily, expected) {
		t.Errorf("expected daily %v, got %v", expected, daily)
	}
}

func TestValidators(t *testing.T) {
	if v, ok := ParseAge(" 25 "); !ok || v != 25 {
		t.Errorf("ParseAge(25) = %v, %v", v, ok)
	}
	for _, bad := range []string{"9", "101", "25.5", "abc", ""} {
		if _, ok := ParseAge(bad); ok {
			t.Errorf("ParseAge(%q) should be rejected", bad)
		}
	}
	if _, ok := ParseHeight("100"); !ok {
		t.Error("height 100 is inclusive")
	}
	if _, ok := ParseHeight("250.1"); ok {
		t.Error("height 250.1 should be rejected")
	}
	if _, ok := ParseWeight("120"); !ok {
		t.Error("weight 120 is inclusive")
	}
	if _, ok := ParseWeight("29.9"); ok {
		t.Error("weight 29.9 should be rejected")
	}
	if _, ok := ParseWeight("NaN"); ok {
		t.Error("NaN weight should be rejected")
	}
	if g, ok := ParseGender("女"); !ok || g != models.GenderFemale {
		t.Errorf("ParseGender(女) = %v, %v", g, ok)
	}
	if _, ok := ParseGender("女性"); ok {
		t.Error("gender must be exactly 男 or 女")
	}
	if g, ok := ParseGoalToken("2"); !ok || g != models.GoalCut {
		t.Errorf("ParseGoalToken(2) = %v, %v", g, ok)
	}
	if a, ok := ParseActivityToken("5"); !ok || a != models.ActivityVeryActive {
		t.Errorf("ParseActivityToken(5) = %v, %v", a, ok)
	}
	if _, ok := ParseActivityToken("6"); ok {
		t.Error("activity code 6 should be rejected")
	}
}

func TestParseCalories(t *testing.T) {
	if v, ok := ParseCalories("-50"); !ok || v != -50 {
		t.Error("wizard calories accept any finite number")
	}
	if _, ok := ParseCalories("lots"); ok {
		t.Error("non-numeric calories should be rejected")
	}
	if _, ok := ParseFoodCalories("-1"); ok {
		t.Error("negative food calories should be rejected")
	}
	if _, ok := ParseFoodCalories("Inf"); ok {
		t.Error("infinite food calories should be rejected")
	}
	if v, ok := ParseFoodCalories("300"); !ok || v != 300 {
		t.Errorf("ParseFoodCalories(300) = %v, %v", v, ok)
	}
}
