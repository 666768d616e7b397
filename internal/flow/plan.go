package flow

import (
	"log/slog"

	"github.com/BTreeMap/MealMate/internal/models"
	"github.com/BTreeMap/MealMate/internal/nutrition"
)

// startPlan opens a fresh meal-plan session. An unfinished session is replaced.
func (r *Router) startPlan(st *models.UserState) outcome {
	if !st.Profile.Ready() {
		slog.Debug("Router.startPlan: profile not ready, ignoring", "user", st.Profile.ID)
		return outcome{}
	}
	dropPlanEchoes(st)
	st.Plan = models.NewPlanSession(r.now())
	slog.Info("Router.startPlan: meal-plan session started", "user", st.Profile.ID)
	return reply(r.offer(st, groupMealType, mealTypePrompt()))
}

func (r *Router) cancelPlan(st *models.UserState) outcome {
	st.Plan = nil
	dropPlanEchoes(st)
	slog.Debug("Router.cancelPlan: meal-plan session cancelled", "user", st.Profile.ID)
	return replyText(TextPlanCanceled)
}

func dropPlanEchoes(st *models.UserState) {
	for _, g := range planGroups {
		st.Echo.Drop(g)
	}
}

// planSelection applies a wizard choice. Choices for any stage other than
// the current one, or without a session, are ignored.
func (r *Router) planSelection(st *models.UserState, a models.Action) outcome {
	p := st.Plan
	if p == nil {
		slog.Debug("Router.planSelection: no active session, ignoring", "user", st.Profile.ID, "action", a.Kind)
		return outcome{}
	}
	switch {
	case a.Kind == models.ActionMealType && p.Stage == models.PlanMealType:
		p.MealType = a.MealType
		p.Stage = models.PlanCuisine
		st.Echo.Settle(groupMealType, a.Label())
		return reply(r.offer(st, groupCuisine, cuisinePrompt()))

	case a.Kind == models.ActionCuisine && p.Stage == models.PlanCuisine:
		p.Cuisine = a.Cuisine
		p.Stage = models.PlanRequirement
		st.Echo.Settle(groupCuisine, a.Label())
		return reply(r.offer(st, groupRequirement, requirementPrompt()))

	case a.Kind == models.ActionRequirement && p.Stage == models.PlanRequirement:
		p.Requirement = a.Requirement
		p.Stage = models.PlanMealTime
		st.Echo.Settle(groupRequirement, a.Label())
		return reply(r.offer(st, groupMealTime, mealTimePrompt()))

	case a.Kind == models.ActionMealTime && p.Stage == models.PlanMealTime:
		p.MealTime = a.MealTime
		st.Echo.Settle(groupMealTime, a.Label())
		if a.MealTime == models.MealTimeFullDay {
			p.Stage = models.PlanExtra
			return replyText(TextAskExtra)
		}
		p.Stage = models.PlanCalories
		return replyText(TextAskCalories)
	}
	slog.Debug("Router.planSelection: stale selection ignored", "user", st.Profile.ID, "stage", p.Stage, "action", a.Kind)
	return outcome{}
}

// planText handles the free-text wizard stages.
func (r *Router) planText(st *models.UserState, text string) outcome {
	p := st.Plan
	switch p.Stage {
	case models.PlanCalories:
		kcal, ok := nutrition.ParseCalories(text)
		if !ok {
			return replyText(TextInvalidNum)
		}
		p.Calories = kcal
		p.Stage = models.PlanExtra
		return replyText(TextAskExtra)

	case models.PlanExtra:
		p.Extra = text
		p.Stage = models.PlanComplete
		target := p.Calories
		if p.MealTime == models.MealTimeFullDay {
			st.Profile.Tracker.Rollover(r.now())
			target = st.Profile.Tracker.TotalCalories
		}
		prompt := planRequest(p, target)
		st.Plan = nil
		slog.Info("Router.planText: meal-plan request composed", "user", st.Profile.ID, "meal_time", p.MealTime, "target", target)
		return outcome{generate: &generation{
			system:   PlanSystemPrompt,
			prompt:   prompt,
			ack:      TextPlanAck,
			fallback: TextPlanFailed,
		}}
	}
	return outcome{}
}
