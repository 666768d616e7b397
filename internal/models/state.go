// Package models defines per-user conversation state for MealMate flows.
package models

import "time"

// Draft holds the attributes collected so far during setup.
type Draft struct {
	Goal   *Goal    `json:"goal,omitempty"`
	Gender *Gender  `json:"gender,omitempty"`
	Age    *int     `json:"age,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

// Body returns the complete attribute set once every field and the activity level are known.
func (d *Draft) Body(activity ActivityLevel) (BodyProfile, bool) {
	if d == nil || d.Goal == nil || d.Gender == nil || d.Age == nil || d.Height == nil || d.Weight == nil {
		return BodyProfile{}, false
	}
	return BodyProfile{
		Goal:     *d.Goal,
		Gender:   *d.Gender,
		Age:      *d.Age,
		Height:   *d.Height,
		Weight:   *d.Weight,
		Activity: activity,
	}, true
}

// BodyProfile is the complete set of attributes of a ready user.
type BodyProfile struct {
	Goal     Goal          `json:"goal"`
	Gender   Gender        `json:"gender"`
	Age      int           `json:"age"`
	Height   float64       `json:"height"`
	Weight   float64       `json:"weight"`
	Activity ActivityLevel `json:"activity_level"`
}

// Profile is a user's record. While Stage is before StageReady only Draft is set;
// once ready, Draft is nil and Body and Tracker are set.
type Profile struct {
	ID      string        `json:"id"`
	Stage   SetupStage    `json:"setup_stage"`
	Draft   *Draft        `json:"draft,omitempty"`
	Body    *BodyProfile  `json:"body,omitempty"`
	Tracker *DailyTracker `json:"daily_tracker,omitempty"`
}

// NewProfile creates a profile at the first setup stage.
func NewProfile(id string) *Profile {
	return &Profile{ID: id, Stage: StageGoal, Draft: &Draft{}}
}

// Ready reports whether setup has finished.
func (p *Profile) Ready() bool {
	return p != nil && p.Stage == StageReady && p.Body != nil && p.Tracker != nil
}

// Promote finishes setup. It is a no-op on a profile that is already ready.
func (p *Profile) Promote(body BodyProfile, tracker *DailyTracker) {
	if p.Ready() {
		return
	}
	p.Stage = StageReady
	p.Draft = nil
	p.Body = &body
	p.Tracker = tracker
}

// PlanSession is an active meal-plan wizard.
type PlanSession struct {
	Stage       PlanStage   `json:"stage"`
	MealType    MealType    `json:"meal_type,omitempty"`
	Cuisine     Cuisine     `json:"cuisine_style,omitempty"`
	Requirement Requirement `json:"diet_requirement,omitempty"`
	MealTime    MealTime    `json:"meal_time,omitempty"`
	Calories    float64     `json:"calories,omitempty"`
	Extra       string      `json:"additional_requirements,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
}

// NewPlanSession starts a wizard at its first stage.
func NewPlanSession(now time.Time) *PlanSession {
	return &PlanSession{Stage: PlanMealType, StartedAt: now}
}

// UserState is everything the bot keeps for one user.
type UserState struct {
	Profile *Profile     `json:"profile,omitempty"` // nil until first contact
	Plan    *PlanSession `json:"plan,omitempty"`    // nil unless a wizard is active
	Echo    EchoSet      `json:"-"`
}
