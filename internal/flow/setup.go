package flow

import (
	"log/slog"
	"strings"

	"github.com/BTreeMap/MealMate/internal/models"
	"github.com/BTreeMap/MealMate/internal/nutrition"
)

// firstContact creates the profile and asks for the goal.
func (r *Router) firstContact(st *models.UserState, userID string) outcome {
	st.Profile = models.NewProfile(userID)
	st.Plan = nil
	slog.Info("Router.firstContact: new user", "user", userID)
	return reply(r.offer(st, groupGoal, welcomePrompt()))
}

// currentSetupPrompt re-emits the prompt for the stage the user is on.
func (r *Router) currentSetupPrompt(st *models.UserState) outcome {
	switch st.Profile.Stage {
	case models.StageGoal:
		return reply(r.offer(st, groupGoal, welcomePrompt()))
	case models.StageGender:
		return reply(r.offer(st, groupGender, genderPrompt()))
	case models.StageAge:
		return replyText(TextAskAge)
	case models.StageHeight:
		return replyText(TextAskHeight)
	case models.StageWeight:
		return replyText(TextAskWeight)
	case models.StageActivity:
		return reply(r.offer(st, groupActivity, activityPrompt(models.ActionSetupActivity)))
	}
	return outcome{}
}

// setupSelection applies a goal, gender or activity choice during onboarding.
// Choices that do not match the current stage are ignored.
func (r *Router) setupSelection(st *models.UserState, a models.Action) outcome {
	p := st.Profile
	switch {
	case a.Kind == models.ActionSetupGoal && p.Stage == models.StageGoal:
		goal := a.Goal
		p.Draft.Goal = &goal
		p.Stage = models.StageGender
		st.Echo.Settle(groupGoal, a.Label())
		return reply(r.offer(st, groupGender, genderPrompt()))

	case a.Kind == models.ActionSetupGender && p.Stage == models.StageGender:
		gender := a.Gender
		p.Draft.Gender = &gender
		p.Stage = models.StageAge
		st.Echo.Settle(groupGender, a.Label())
		return replyText(TextAskAge)

	case a.Kind == models.ActionSetupActivity && p.Stage == models.StageActivity:
		body, ok := p.Draft.Body(a.Activity)
		if !ok {
			slog.Error("Router.setupSelection: draft incomplete at activity stage", "user", p.ID)
			return outcome{}
		}
		bmr, daily := nutrition.DailyTarget(body)
		p.Promote(body, models.NewDailyTracker(daily, r.now()))
		st.Echo.Settle(groupActivity, a.Label())
		slog.Info("Router.setupSelection: setup complete", "user", p.ID, "bmr", bmr, "daily", daily)
		return replyText(setupSummary(body, bmr, daily))
	}
	slog.Debug("Router.setupSelection: stale selection ignored", "user", p.ID, "stage", p.Stage, "action", a.Kind)
	return outcome{}
}

// setupText handles free text while onboarding. Text is ignored while a
// selection is expected; a numeric stage re-asks until the value is valid.
func (r *Router) setupText(st *models.UserState, text string) outcome {
	p := st.Profile
	switch p.Stage {
	case models.StageAge:
		age, ok := nutrition.ParseAge(text)
		if !ok {
			return replyText(TextInvalidAge)
		}
		p.Draft.Age = &age
		p.Stage = models.StageHeight
		return replyText(TextAskHeight)

	case models.StageHeight:
		height, ok := nutrition.ParseHeight(text)
		if !ok {
			return replyText(TextInvalidHgt)
		}
		p.Draft.Height = &height
		p.Stage = models.StageWeight
		return replyText(TextAskWeight)

	case models.StageWeight:
		weight, ok := nutrition.ParseWeight(text)
		if !ok {
			return replyText(TextInvalidWgt)
		}
		p.Draft.Weight = &weight
		p.Stage = models.StageActivity
		return reply(r.offer(st, groupActivity, activityPrompt(models.ActionSetupActivity)))
	}
	slog.Debug("Router.setupText: free text during selection ignored", "user", p.ID, "stage", p.Stage)
	return outcome{}
}

// edit handles "編輯 <field> [value]" for a ready profile.
func (r *Router) edit(st *models.UserState, text string) outcome {
	fields := strings.Fields(text)
	if len(fields) < 2 || fields[0] != CmdEdit {
		return replyText(TextEditUsage)
	}
	field := fields[1]
	value := ""
	if len(fields) > 2 {
		value = fields[2]
	}
	body := st.Profile.Body

	switch field {
	case FieldGoal:
		return reply(r.offer(st, groupEditGoal, goalPrompt(models.ActionEditGoal, "重新設定目標")))
	case FieldActivity:
		return reply(r.offer(st, groupEditAct, activityPrompt(models.ActionEditActivity)))
	case FieldHeight:
		v, ok := nutrition.ParseHeight(value)
		if !ok {
			return replyText(editFailed(field))
		}
		body.Height = v
	case FieldWeight:
		v, ok := nutrition.ParseWeight(value)
		if !ok {
			return replyText(editFailed(field))
		}
		body.Weight = v
	case FieldAge:
		v, ok := nutrition.ParseAge(value)
		if !ok {
			return replyText(editFailed(field))
		}
		body.Age = v
	case FieldGender:
		v, ok := nutrition.ParseGender(value)
		if !ok {
			return replyText(editFailed(field))
		}
		body.Gender = v
	default:
		return replyText(TextEditBadField)
	}
	r.recomputeTarget(st.Profile)
	return replyText(editDone(field, value))
}

// editSelection applies a goal or activity chosen from an edit prompt.
func (r *Router) editSelection(st *models.UserState, a models.Action) outcome {
	p := st.Profile
	if !p.Ready() {
		slog.Debug("Router.editSelection: profile not ready, ignoring", "user", p.ID)
		return outcome{}
	}
	switch a.Kind {
	case models.ActionEditGoal:
		p.Body.Goal = a.Goal
		st.Echo.Settle(groupEditGoal, a.Label())
		r.recomputeTarget(p)
		return replyText("目標已更新為: " + string(a.Goal))
	case models.ActionEditActivity:
		p.Body.Activity = a.Activity
		st.Echo.Settle(groupEditAct, a.Label())
		r.recomputeTarget(p)
		return replyText("活動量已更新為: " + string(a.Activity))
	}
	return outcome{}
}

// recomputeTarget refreshes the daily budget after a profile change. The
// day's log is kept.
func (r *Router) recomputeTarget(p *models.Profile) {
	p.Tracker.Rollover(r.now())
	_, daily := nutrition.DailyTarget(*p.Body)
	p.Tracker.TotalCalories = daily
	slog.Debug("Router.recomputeTarget: daily target updated", "user", p.ID, "daily", daily)
}

func editDone(field, value string) string {
	return "已更新 " + field + " 為 " + value
}

func editFailed(field string) string {
	return "無法更新 " + field + "，請檢查輸入是否正確"
}
