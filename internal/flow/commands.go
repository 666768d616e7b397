package flow

import (
	"log/slog"
	"strings"

	"github.com/BTreeMap/MealMate/internal/models"
	"github.com/BTreeMap/MealMate/internal/nutrition"
)

// command interprets text from a user whose profile is complete.
func (r *Router) command(st *models.UserState, text string) outcome {
	now := r.now()
	if st.Profile.Tracker.Rollover(now) {
		slog.Info("Router.command: tracker rolled over", "user", st.Profile.ID, "date", st.Profile.Tracker.TrackingDate)
	}
	// A typed command answers no pending prompt.
	st.Echo.DropUnsettled()

	switch {
	case strings.HasPrefix(text, CmdLogFood):
		return r.logFood(st, text)
	case strings.HasPrefix(text, CmdDeleteFood):
		return r.deleteFood(st, text)
	case text == CmdStatus:
		return replyText(statusReport(*st.Profile.Body, st.Profile.Tracker))
	case text == CmdAdvice:
		return reply(adviceConfirmPrompt())
	case strings.HasPrefix(text, CmdEdit):
		return r.edit(st, text)
	case text == CmdHelp:
		return replyText(TextHelp)
	}
	return replyText(TextUnsupported)
}

// logFood handles "新增記錄 <name> <kcal>".
func (r *Router) logFood(st *models.UserState, text string) outcome {
	fields := strings.Fields(text)
	if len(fields) != 3 || fields[0] != CmdLogFood {
		return replyText(TextLogUsage)
	}
	kcal, ok := nutrition.ParseFoodCalories(fields[2])
	if !ok {
		return replyText(TextLogUsage)
	}
	t := st.Profile.Tracker
	if !t.LogFood(fields[1], kcal, r.now()) {
		slog.Debug("Router.logFood: entry exceeds daily budget", "user", st.Profile.ID, "kcal", kcal, "remaining", t.Remaining())
		return replyText(TextOverBudget)
	}
	return replyText(logSuccess(fields[1], kcal, t.Remaining()))
}

// deleteFood handles "刪除記錄 <name>".
func (r *Router) deleteFood(st *models.UserState, text string) outcome {
	fields := strings.Fields(text)
	if len(fields) != 2 || fields[0] != CmdDeleteFood {
		return replyText(TextDeleteUsage)
	}
	name := fields[1]
	if !st.Profile.Tracker.RemoveFood(name, r.now()) {
		return replyText("找不到 " + name + " 的飲食記錄")
	}
	return replyText("已成功刪除 " + name + " 的飲食記錄")
}
