package models

import (
	"strconv"
	"strings"
)

// ActionKind tags a decoded selection.
type ActionKind string

const (
	ActionUnknown       ActionKind = ""
	ActionSetupGoal     ActionKind = "goal"
	ActionSetupGender   ActionKind = "gender"
	ActionSetupActivity ActionKind = "activity"
	ActionEditGoal      ActionKind = "edit_goal"
	ActionEditActivity  ActionKind = "edit_activity"
	ActionMealType      ActionKind = "meal_type"
	ActionCuisine       ActionKind = "cuisine"
	ActionRequirement   ActionKind = "requirement"
	ActionMealTime      ActionKind = "meal_time"
	ActionPlanStart     ActionKind = "plan_start"
	ActionPlanCancel    ActionKind = "plan_cancel"
)

// Action is a button selection decoded from its wire identifier.
// Only the field matching Kind is set.
type Action struct {
	Kind        ActionKind
	Goal        Goal
	Gender      Gender
	Activity    ActivityLevel
	MealType    MealType
	Cuisine     Cuisine
	Requirement Requirement
	MealTime    MealTime
}

// IsPlan reports whether the action belongs to the meal-plan wizard.
func (a Action) IsPlan() bool {
	switch a.Kind {
	case ActionMealType, ActionCuisine, ActionRequirement, ActionMealTime:
		return true
	}
	return false
}

// Label returns the text a selection echoes back into the chat.
func (a Action) Label() string {
	switch a.Kind {
	case ActionSetupGoal, ActionEditGoal:
		return string(a.Goal)
	case ActionSetupGender:
		return a.Gender.Label()
	case ActionSetupActivity, ActionEditActivity:
		return string(a.Activity)
	case ActionMealType:
		return string(a.MealType)
	case ActionCuisine:
		return string(a.Cuisine)
	case ActionRequirement:
		return string(a.Requirement)
	case ActionMealTime:
		return string(a.MealTime)
	case ActionPlanStart:
		return "是"
	case ActionPlanCancel:
		return "否"
	}
	return ""
}

// Data encodes the action as its wire identifier, e.g. "goal_增肌", "edit_activity_3".
func (a Action) Data() string {
	switch a.Kind {
	case ActionSetupGoal, ActionEditGoal:
		return string(a.Kind) + "_" + string(a.Goal)
	case ActionSetupGender:
		return string(a.Kind) + "_" + string(a.Gender)
	case ActionSetupActivity, ActionEditActivity:
		return string(a.Kind) + "_" + a.Activity.Code()
	case ActionMealType:
		return string(a.Kind) + "_" + string(a.MealType)
	case ActionCuisine:
		return string(a.Kind) + "_" + string(a.Cuisine)
	case ActionRequirement:
		return string(a.Kind) + "_" + string(a.Requirement)
	case ActionMealTime:
		return string(a.Kind) + "_" + string(a.MealTime)
	case ActionPlanStart, ActionPlanCancel:
		return string(a.Kind)
	}
	return ""
}

// prefixes are checked in order; longer prefixes sharing a stem come first.
var actionPrefixes = []ActionKind{
	ActionEditGoal, ActionEditActivity,
	ActionSetupGoal, ActionSetupGender, ActionSetupActivity,
	ActionMealType, ActionMealTime, ActionCuisine, ActionRequirement,
}

// ParseAction decodes a wire identifier. Anything it cannot decode yields ActionUnknown.
func ParseAction(data string) Action {
	data = strings.TrimSpace(data)
	switch ActionKind(data) {
	case ActionPlanStart, ActionPlanCancel:
		return Action{Kind: ActionKind(data)}
	}
	for _, kind := range actionPrefixes {
		value, ok := strings.CutPrefix(data, string(kind)+"_")
		if !ok {
			continue
		}
		a := Action{Kind: kind}
		switch kind {
		case ActionSetupGoal, ActionEditGoal:
			a.Goal, ok = lookupGoal(value)
		case ActionSetupGender:
			a.Gender, ok = lookupGender(value)
		case ActionSetupActivity, ActionEditActivity:
			a.Activity, ok = ActivityFromCode(value)
		case ActionMealType:
			a.MealType, ok = lookup(MealTypes, value)
		case ActionCuisine:
			a.Cuisine, ok = lookup(Cuisines, value)
		case ActionRequirement:
			a.Requirement, ok = lookup(Requirements, value)
		case ActionMealTime:
			a.MealTime, ok = lookup(MealTimes, value)
		}
		if !ok {
			return Action{}
		}
		return a
	}
	return Action{}
}

func lookup[T ~string](options []T, value string) (T, bool) {
	for _, o := range options {
		if string(o) == value {
			return o, true
		}
	}
	var zero T
	return zero, false
}

// lookupGoal accepts either the label or its menu code.
func lookupGoal(value string) (Goal, bool) {
	if g, ok := lookup(Goals, value); ok {
		return g, true
	}
	return GoalFromCode(value)
}

func lookupGender(value string) (Gender, bool) {
	return lookup([]Gender{GenderMale, GenderFemale}, value)
}

// GoalFromCode maps "1".."3" to a goal.
func GoalFromCode(code string) (Goal, bool) {
	return fromCode(Goals, code)
}

// ActivityFromCode maps "1".."5" to an activity level.
func ActivityFromCode(code string) (ActivityLevel, bool) {
	return fromCode(ActivityLevels, code)
}

// Code returns the 1-based menu code of the activity level.
func (l ActivityLevel) Code() string {
	for i, v := range ActivityLevels {
		if v == l {
			return strconv.Itoa(i + 1)
		}
	}
	return ""
}

func fromCode[T any](options []T, code string) (T, bool) {
	var zero T
	n, err := strconv.Atoi(code)
	if err != nil || strconv.Itoa(n) != code || n < 1 || n > len(options) {
		return zero, false
	}
	return options[n-1], true
}
