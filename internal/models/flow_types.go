// Package models defines the enumerations used by the conversation flows.
package models

// SetupStage represents where a user is in the onboarding flow.
type SetupStage string

// Setup stages, in order.
const (
	StageGoal     SetupStage = "goal"
	StageGender   SetupStage = "gender"
	StageAge      SetupStage = "age"
	StageHeight   SetupStage = "height"
	StageWeight   SetupStage = "weight"
	StageActivity SetupStage = "activity"
	StageReady    SetupStage = "ready"
)

// IsSelection reports whether the stage is answered with a button rather than free text.
func (s SetupStage) IsSelection() bool {
	return s == StageGoal || s == StageGender || s == StageActivity
}

// PlanStage represents where a user is in the meal-plan wizard.
type PlanStage string

// Meal-plan stages, in order.
const (
	PlanMealType    PlanStage = "meal_type"
	PlanCuisine     PlanStage = "cuisine_style"
	PlanRequirement PlanStage = "diet_requirement"
	PlanMealTime    PlanStage = "meal_time"
	PlanCalories    PlanStage = "calories"
	PlanExtra       PlanStage = "additional_requirements"
	PlanComplete    PlanStage = "complete"
)

// AcceptsText reports whether the wizard expects free text at this stage.
func (s PlanStage) AcceptsText() bool {
	return s == PlanCalories || s == PlanExtra
}

// Goal is a body-composition goal. Values are the user-facing labels.
type Goal string

const (
	GoalBulk     Goal = "增肌"
	GoalCut      Goal = "減重"
	GoalMaintain Goal = "維持體重"
)

// Goals lists goals in menu order; the 1-based index is the goal code.
var Goals = []Goal{GoalBulk, GoalCut, GoalMaintain}

// Gender values.
type Gender string

const (
	GenderMale   Gender = "男"
	GenderFemale Gender = "女"
)

// Label returns the long form shown on the selection button ("男性").
func (g Gender) Label() string {
	return string(g) + "性"
}

// ActivityLevel is the weekly exercise bracket. Values are the user-facing labels.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "久坐"
	ActivityLight      ActivityLevel = "輕度活動"
	ActivityModerate   ActivityLevel = "中度活動"
	ActivityActive     ActivityLevel = "高度活動"
	ActivityVeryActive ActivityLevel = "非常活躍"
)

// ActivityLevels lists levels in menu order; the 1-based index is the activity code.
var ActivityLevels = []ActivityLevel{
	ActivitySedentary, ActivityLight, ActivityModerate, ActivityActive, ActivityVeryActive,
}

// MealType is how the meal is sourced.
type MealType string

const (
	MealTypeEatOut MealType = "外食"
	MealTypeCook   MealType = "自行烹調"
)

// MealTypes lists meal types in menu order.
var MealTypes = []MealType{MealTypeEatOut, MealTypeCook}

// Cuisine is a cooking style.
type Cuisine string

const (
	CuisineAmerican Cuisine = "美式"
	CuisineJapanese Cuisine = "日式"
	CuisineChinese  Cuisine = "中式"
	CuisineItalian  Cuisine = "義式"
	CuisineKorean   Cuisine = "韓式"
	CuisineThai     Cuisine = "泰式"
)

// Cuisines lists cuisines in menu order.
var Cuisines = []Cuisine{
	CuisineAmerican, CuisineJapanese, CuisineChinese, CuisineItalian, CuisineKorean, CuisineThai,
}

// Requirement is a dietary requirement.
type Requirement string

const (
	RequirementWeightLoss  Requirement = "減重"
	RequirementHighProtein Requirement = "高蛋白"
	RequirementBalanced    Requirement = "均衡"
	RequirementVegetarian  Requirement = "素食"
	RequirementGlutenFree  Requirement = "無麩質"
)

// Requirements lists requirements in menu order.
var Requirements = []Requirement{
	RequirementWeightLoss, RequirementHighProtein, RequirementBalanced, RequirementVegetarian, RequirementGlutenFree,
}

// MealTime is the meal the plan is for.
type MealTime string

const (
	MealTimeBreakfast MealTime = "早餐"
	MealTimeLunch     MealTime = "午餐"
	MealTimeDinner    MealTime = "晚餐"
	MealTimeSnack     MealTime = "點心"
	MealTimeLateNight MealTime = "宵夜"
	MealTimeFullDay   MealTime = "一日菜單"
)

// MealTimes lists meal times in menu order.
var MealTimes = []MealTime{
	MealTimeBreakfast, MealTimeLunch, MealTimeDinner, MealTimeSnack, MealTimeLateNight, MealTimeFullDay,
}
