package models

import (
	"testing"
	"time"
)

func TestEventValidate(t *testing.T) {
	if err := (Event{Kind: EventText, UserID: "U1", Text: "hi"}).Validate(); err != nil {
		t.Errorf("expected valid text event, got %v", err)
	}
	if err := (Event{Kind: EventText, Text: "hi"}).Validate(); err != ErrEmptyUserID {
		t.Errorf("expected ErrEmptyUserID, got %v", err)
	}
	if err := (Event{Kind: EventImage, UserID: "U1"}).Validate(); err != ErrEmptyImageRef {
		t.Errorf("expected ErrEmptyImageRef, got %v", err)
	}
	if err := (Event{Kind: "sticker", UserID: "U1"}).Validate(); err != ErrUnknownKind {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestParseAction(t *testing.T) {
	cases := []struct {
		data string
		want Action
	}{
		{"goal_減重", Action{Kind: ActionSetupGoal, Goal: GoalCut}},
		{"goal_1", Action{Kind: ActionSetupGoal, Goal: GoalBulk}},
		{"gender_女", Action{Kind: ActionSetupGender, Gender: GenderFemale}},
		{"activity_2", Action{Kind: ActionSetupActivity, Activity: ActivityLight}},
		{"edit_goal_維持體重", Action{Kind: ActionEditGoal, Goal: GoalMaintain}},
		{"edit_activity_3", Action{Kind: ActionEditActivity, Activity: ActivityModerate}},
		{"meal_type_自行烹調", Action{Kind: ActionMealType, MealType: MealTypeCook}},
		{"meal_time_一日菜單", Action{Kind: ActionMealTime, MealTime: MealTimeFullDay}},
		{"cuisine_泰式", Action{Kind: ActionCuisine, Cuisine: CuisineThai}},
		{"requirement_無麩質", Action{Kind: ActionRequirement, Requirement: RequirementGlutenFree}},
		{"plan_start", Action{Kind: ActionPlanStart}},
		{"plan_cancel", Action{Kind: ActionPlanCancel}},
	}
	for _, c := range cases {
		got := ParseAction(c.data)
		if got != c.want {
			t.Errorf("ParseAction(%q) = %+v, want %+v", c.data, got, c.want)
		}
	}
}

func TestParseAction_Unknown(t *testing.T) {
	for _, data := range []string{"", "goal_", "goal_4", "activity_0", "activity_+1", "gender_男性", "cuisine_法式", "dance_1"} {
		if got := ParseAction(data); got.Kind != ActionUnknown {
			t.Errorf("ParseAction(%q) = %+v, want unknown", data, got)
		}
	}
}

func TestActionDataDecodesBack(t *testing.T) {
	a := Action{Kind: ActionEditActivity, Activity: ActivityVeryActive}
	if a.Data() != "edit_activity_5" {
		t.Fatalf("unexpected data %q", a.Data())
	}
	if ParseAction(a.Data()) != a {
		t.Errorf("decoding %q did not return the same action", a.Data())
	}
	if (Action{Kind: ActionSetupGender, Gender: GenderMale}).Label() != "男性" {
		t.Error("gender label should be the long form")
	}
}

func TestDraftBody(t *testing.T) {
	d := &Draft{}
	if _, ok := d.Body(ActivityLight); ok {
		t.Fatal("empty draft must not be complete")
	}
	goal, gender, age, h, w := GoalCut, GenderFemale, 25, 165.0, 60.0
	d = &Draft{Goal: &goal, Gender: &gender, Age: &age, Height: &h, Weight: &w}
	body, ok := d.Body(ActivityLight)
	if !ok {
		t.Fatal("complete draft reported incomplete")
	}
	if body.Goal != GoalCut || body.Activity != ActivityLight || body.Age != 25 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestProfilePromoteOnce(t *testing.T) {
	now := time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)
	p := NewProfile("U1")
	if p.Ready() {
		t.Fatal("new profile must not be ready")
	}
	p.Promote(BodyProfile{Goal: GoalBulk}, NewDailyTracker(2000, now))
	if !p.Ready() || p.Draft != nil {
		t.Fatal("promoted profile should be ready with no draft")
	}
	p.Tracker.LogFood("rice", 300, now)
	p.Promote(BodyProfile{Goal: GoalCut}, NewDailyTracker(1000, now))
	if p.Body.Goal != GoalBulk || p.Tracker.ConsumedCalories != 300 {
		t.Error("second Promote must not reinitialize the profile")
	}
}

func TestDailyTracker_LogFoodBudget(t *testing.T) {
	now := time.Date(2024, 12, 1, 12, 30, 0, 0, time.UTC)
	tr := NewDailyTracker(400, now)

	if !tr.LogFood("chicken", 300, now) {
		t.Fatal("first log should fit the budget")
	}
	if tr.LogFood("chicken", 300, now) {
		t.Fatal("second log should exceed the budget")
	}
	if tr.ConsumedCalories != 300 || len(tr.FoodLog) != 1 {
		t.Errorf("rejected log mutated tracker: consumed=%v log=%d", tr.ConsumedCalories, len(tr.FoodLog))
	}
	if tr.FoodLog[0].Time != "12:30" {
		t.Errorf("expected time 12:30, got %s", tr.FoodLog[0].Time)
	}
	if !tr.LogFood("tea", 100, now) {
		t.Error("log reaching the budget exactly should be accepted")
	}
}

func TestDailyTracker_RemoveFoodFirstMatch(t *testing.T) {
	now := time.Date(2024, 12, 1, 8, 0, 0, 0, time.UTC)
	tr := NewDailyTracker(2000, now)
	tr.LogFood("egg", 70, now)
	tr.LogFood("egg", 90, now.Add(time.Hour))

	if !tr.RemoveFood("egg", now) {
		t.Fatal("expected egg to be found")
	}
	if len(tr.FoodLog) != 1 || tr.FoodLog[0].Calories != 90 {
		t.Errorf("expected the later egg to remain, got %+v", tr.FoodLog)
	}
	if tr.ConsumedCalories != 90 {
		t.Errorf("expected consumed 90, got %v", tr.ConsumedCalories)
	}
	if tr.RemoveFood("Egg", now) {
		t.Error("name matching should be case-sensitive")
	}
}

func TestDailyTracker_Rollover(t *testing.T) {
	day1 := time.Date(2024, 12, 1, 23, 50, 0, 0, time.UTC)
	tr := NewDailyTracker(1800, day1)
	tr.LogFood("noodles", 600, day1)

	day2 := day1.Add(20 * time.Minute)
	if !tr.LogFood("toast", 200, day2) {
		t.Fatal("log on the next day should be accepted")
	}
	if tr.ConsumedCalories != 200 || len(tr.FoodLog) != 1 {
		t.Errorf("expected reset before logging, got consumed=%v log=%+v", tr.ConsumedCalories, tr.FoodLog)
	}
	if tr.TotalCalories != 1800 {
		t.Errorf("rollover must keep the budget, got %v", tr.TotalCalories)
	}
	if tr.TrackingDate != "2024-12-02" {
		t.Errorf("unexpected tracking date %s", tr.TrackingDate)
	}
}

func TestEchoSet(t *testing.T) {
	var e EchoSet
	e.Offer("goal", []string{"增肌", "減重", "維持體重"})
	e.Settle("goal", "減重")
	if e.Pending() != 1 {
		t.Fatalf("expected only the chosen label pending, got %d", e.Pending())
	}
	if e.Consume("增肌") {
		t.Error("sibling labels should be pruned once the selection settles")
	}
	if !e.Consume("減重") {
		t.Fatal("expected chosen echo to be consumed")
	}
	if e.Consume("減重") {
		t.Error("an echo must be consumed at most once")
	}
}

func TestEchoSet_EchoBeforePostback(t *testing.T) {
	var e EchoSet
	e.Offer("gender", []string{"男性", "女性"})
	if !e.Consume("女性") {
		t.Fatal("expected echo to be consumed")
	}
	e.Settle("gender", "女性")
	if e.Pending() != 0 {
		t.Errorf("expected nothing pending, got %d", e.Pending())
	}
}

func TestEchoSet_UnansweredPromptIsSuperseded(t *testing.T) {
	var e EchoSet
	e.Offer("goal", []string{"增肌", "減重", "維持體重"})
	e.Settle("goal", "減重")
	e.Offer("edit_goal", []string{"增肌", "減重", "維持體重"})
	if e.Pending() != 4 {
		t.Fatalf("expected settled label plus new prompt, got %d", e.Pending())
	}

	// The edit prompt is never answered; the next prompt replaces it.
	e.Offer("confirm", []string{"是", "否"})
	if e.Pending() != 3 {
		t.Fatalf("expected settled label plus confirm prompt, got %d", e.Pending())
	}
	if e.Consume("增肌") {
		t.Error("labels of an unanswered prompt must not be swallowed")
	}
	if !e.Consume("減重") {
		t.Error("a settled echo must survive later prompts")
	}
}

func TestEchoSet_DropUnsettled(t *testing.T) {
	var e EchoSet
	e.DropUnsettled()
	e.Offer("gender", []string{"男性", "女性"})
	e.Settle("gender", "男性")
	e.Offer("activity", []string{"久坐", "輕度活動"})
	e.DropUnsettled()
	if e.Pending() != 1 || !e.Consume("男性") {
		t.Errorf("expected only the settled label left, got %d", e.Pending())
	}
	e.Offer("goal", nil)
	if e.Pending() != 0 {
		t.Errorf("an empty offer must leave nothing pending, got %d", e.Pending())
	}
}
