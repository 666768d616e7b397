package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BTreeMap/MealMate/internal/models"
	"github.com/BTreeMap/MealMate/internal/nutrition"
)

// Command keywords recognized once setup is complete.
const (
	CmdLogFood    = "新增記錄"
	CmdDeleteFood = "刪除記錄"
	CmdStatus     = "今日狀態"
	CmdAdvice     = "飲食建議"
	CmdEdit       = "編輯"
	CmdHelp       = "Help"
)

// Editable profile fields.
const (
	FieldHeight   = "身高"
	FieldWeight   = "體重"
	FieldAge      = "年齡"
	FieldGender   = "性別"
	FieldGoal     = "目標"
	FieldActivity = "活動量"
)

// User-facing texts.
const (
	TextAskAge       = "請輸入您的年齡(數字)"
	TextAskHeight    = "請輸入您的身高(公分)"
	TextAskWeight    = "請輸入您的體重(公斤)"
	TextInvalidAge   = "請輸入有效的年齡 (10-100)"
	TextInvalidHgt   = "請輸入有效的身高 (100-250 公分)"
	TextInvalidWgt   = "請輸入有效的體重 (30-120 公斤)"
	TextAskCalories  = "請輸入您預計攝取的熱量(大卡)"
	TextAskExtra     = "請輸入其他特殊飲食需求(無特殊需求請輸入「無」)"
	TextInvalidNum   = "請輸入有效的數字！"
	TextPlanAck      = "🔄正在生成飲食建議，請稍後..."
	TextPlanFailed   = "❌無法生成飲食建議，請稍後再試。"
	TextPlanCanceled = "已取消飲食建議流程"
	TextImageAck     = "🔄正在分析圖片，請稍後..."
	TextImageFailed  = "❌分析圖片時發生錯誤，請稍後再試。"
	TextOverBudget   = "超過每日建議熱量，無法記錄"
	TextLogUsage     = "新增記錄格式錯誤。請使用「新增記錄 <食物名稱> <熱量>」"
	TextDeleteUsage  = "刪除記錄格式錯誤。請使用「刪除記錄 <食物名稱>」"
	TextEditUsage    = "編輯格式錯誤。請使用「編輯 <項目> <修改內容>」"
	TextEditBadField = "編輯項目錯誤。請使用「編輯 <項目> <修改內容>」"
	TextUnsupported  = "感謝您的使用。目前暫無此功能！ \n(輸入 Help 顯示指令列表)"
	TextWelcomeBack  = "歡迎回來！您的個人資料仍然保留。\n(輸入 Help 顯示指令列表)"
	TextImageRequest = "請幫我估計這張圖片食物的熱量。"
)

// TextHelp is the command reference.
const TextHelp = "🥖 Meal Mate 使用說明 🍓\n\n" +
	"💻指令列表:\n" +
	"記錄食物: 新增記錄 <食物名稱> <熱量>\n" +
	"刪除食物記錄: 刪除記錄 <食物名稱>\n" +
	"顯示當日熱量狀態: 今日狀態\n" +
	"生成客製化飲食建議: 飲食建議 \n" +
	"修改個人資料: 編輯 <項目> <修改內容>\n" +
	"顯示指令說明: Help\n\n" +
	"✏️編輯範例:\n" +
	"「編輯 目標」\n" +
	"「編輯 體重 <重量>(kg)」\n" +
	"「編輯 身高 <身高>(cm)」\n" +
	"「編輯 年齡 <年齡>」\n" +
	"「編輯 性別 <男/女>」\n" +
	"「編輯 活動量」\n"

// PlanSystemPrompt instructs the model to answer in the menu format.
const PlanSystemPrompt = `你是一位營養師，為客戶設計繁體中文飲食菜單，
菜單的總熱量需滿足客戶所述的需求熱量，熱量範圍可以在需求熱量正負10%以內。
根據客戶的需求嚴格按照以下格式提供飲食建議：
<早餐/午餐/晚餐/點心/宵夜>:
-<食物名稱><數量/單位>:<食物熱量>大卡
-<食物名稱><數量/單位>:<食物熱量>大卡
...
總熱量:<總熱量>大卡
...
菜單總熱量:<總熱量>大卡
針對菜單的營養價值做簡短描述。`

// VisionSystemPrompt instructs the model how to report a food photo.
const VisionSystemPrompt = `你是一位專業的營養師，專門分析食物照片並估算熱量。
請依照以下格式回覆：
1. 食物名稱：[辨識出的食物名稱]
2. 份量估計：[估計的份量，例如：一碗、100克等]
3. 熱量估計：[照片中每種食物估計熱量] 大卡 (ex: -白飯: 約320大卡\n -炒青菜: 約50大卡... -總熱量: 約370大卡)
4. 營養建議：[簡短的營養建議]

請盡可能準確估計，如果照片無法清楚判斷，請說明原因。`

// Echo groups, one per prompt that offers selections.
const (
	groupGoal        = "goal"
	groupGender      = "gender"
	groupActivity    = "activity"
	groupEditGoal    = "edit_goal"
	groupEditAct     = "edit_activity"
	groupMealType    = "meal_type"
	groupCuisine     = "cuisine"
	groupRequirement = "requirement"
	groupMealTime    = "meal_time"
)

// planGroups are dropped when a wizard is cancelled or restarted.
var planGroups = []string{groupMealType, groupCuisine, groupRequirement, groupMealTime}

type choiceCard struct {
	title, description, thumbnail string
}

var activityCards = map[models.ActivityLevel]choiceCard{
	models.ActivitySedentary:  {"久坐", "幾乎沒有運動", "https://img.freepik.com/free-vector/cabin-fever-concept-illustration_114360-2872.jpg"},
	models.ActivityLight:      {"輕度活動", "運動 1-3 次/週", "https://img.freepik.com/free-vector/yoga-practice-concept-illustration_114360-5554.jpg"},
	models.ActivityModerate:   {"中度活動", "運動 3-5 次/週", "https://s38924.pcdn.co/wp-content/uploads/2021/03/New-Global-Adventures-and-Gravity-Forms-.png"},
	models.ActivityActive:     {"高度活動", "運動或運動 6-7 次/週", "https://fitourney.com/images/5233015.jpg"},
	models.ActivityVeryActive: {"非常活躍", "每天都有運動", "https://img.freepik.com/free-vector/finish-line-concept-illustration_114360-2750.jpg"},
}

var cuisineCards = map[models.Cuisine]choiceCard{
	models.CuisineAmerican: {"美式料理", "如:漢堡、薯條、炸雞等", "https://i.pinimg.com/736x/d3/42/1f/d3421fedf1f7648ca7c7f1879c397c4b.jpg"},
	models.CuisineJapanese: {"日式料理", "如:壽司、拉麵、刺身等", "https://i.pinimg.com/736x/ac/a8/f8/aca8f8463de190748b4505cdacce48eb.jpg"},
	models.CuisineChinese:  {"中式料理", "如:炒飯、麵食、蛤蠣絲瓜等", "https://i.pinimg.com/736x/b4/62/b2/b462b28ecef0582be9f82ccb73371eaa.jpg"},
	models.CuisineItalian:  {"義式料理", "如:義大利麵、披薩、焗烤等", "https://i.pinimg.com/736x/6b/8a/6e/6b8a6e33f4d5923047a04a09e29b8289.jpg"},
	models.CuisineKorean:   {"韓式料理", "如:泡菜、烤肉、石鍋拌飯等", "https://i.pinimg.com/736x/fd/ed/ea/fdedea6e3c56c7ec485b09b30fa8f816.jpg"},
	models.CuisineThai:     {"泰式料理", "如:打拋豬、綠咖哩、椒麻雞等", "https://i.pinimg.com/736x/67/28/2f/67282ff1cecfd27c047e090813f221b4.jpg"},
}

var requirementCards = map[models.Requirement]choiceCard{
	models.RequirementWeightLoss:  {"減重飲食", "例如少油少鹽的清淡飲食", "https://i.pinimg.com/736x/d4/0f/a4/d40fa452569e889d0b80502560212bfd.jpg"},
	models.RequirementHighProtein: {"高蛋白飲食", "富含豐富蛋白質，適合增肌時期或運動後的人", "https://i.pinimg.com/736x/86/52/5c/86525c07fd58a8cc170ef4079a3a9bc9.jpg"},
	models.RequirementBalanced:    {"均衡飲食", "各類食物均衡攝取", "https://i.pinimg.com/736x/c0/56/b7/c056b77c2c472ca12aee47211ea10ab4.jpg"},
	models.RequirementVegetarian:  {"素食飲食", "適合素食者，不含葷食", "https://i.pinimg.com/736x/1c/3c/1b/1c3c1b4b3604b307a99474e52d8a201e.jpg"},
	models.RequirementGlutenFree:  {"無麩質飲食", "適合麩質過敏者，不含小麥、大麥、麥麩等", "https://img.shoplineapp.com/media/image_clips/668b7145948b3100167dac7a/original.jpg"},
}

var mealTimeCards = map[models.MealTime]choiceCard{
	models.MealTimeBreakfast: {"早餐", "選擇早餐菜單", "https://i.pinimg.com/736x/c3/8c/4c/c38c4c218cbf7dacf09d6aacd9a6c3ef.jpg"},
	models.MealTimeLunch:     {"午餐", "選擇午餐菜單", "https://i.pinimg.com/736x/57/58/6f/57586f877369922c24ccf770e5a1e665.jpg"},
	models.MealTimeDinner:    {"晚餐", "選擇晚餐菜單", "https://i.pinimg.com/736x/f3/4a/2c/f34a2c2aef5c82f1549bb6ae52579aaf.jpg"},
	models.MealTimeSnack:     {"點心", "選擇點心菜單", "https://i.pinimg.com/736x/3e/70/1a/3e701a24d91eeee687e4a7798a6dc702.jpg"},
	models.MealTimeLateNight: {"宵夜", "選擇宵夜菜單", "https://i.pinimg.com/736x/66/5f/c5/665fc5e4e0f24744369a445215e3fb7c.jpg"},
	models.MealTimeFullDay:   {"一日菜單", "選擇一日菜單", "https://i.pinimg.com/736x/50/48/7f/50487fadf6c16916442f8e3846c22e0f.jpg"},
}

func button(a models.Action) models.Choice {
	return models.Choice{Action: a, Label: a.Label(), Echo: a.Label()}
}

func column(a models.Action, card choiceCard) models.Choice {
	return models.Choice{
		Action:       a,
		Label:        "選擇",
		Echo:         a.Label(),
		Title:        card.title,
		Description:  card.description,
		ThumbnailURL: card.thumbnail,
	}
}

func goalPrompt(kind models.ActionKind, title string) models.Message {
	msg := models.Message{Kind: models.MessageButtons, Title: title, Text: "請選擇您的目標:", AltText: "請選擇目標"}
	for _, g := range models.Goals {
		msg.Choices = append(msg.Choices, button(models.Action{Kind: kind, Goal: g}))
	}
	return msg
}

func welcomePrompt() models.Message {
	return goalPrompt(models.ActionSetupGoal, "歡迎使用Meal Mate！")
}

func genderPrompt() models.Message {
	return models.Message{
		Kind:    models.MessageConfirm,
		Text:    "請選擇您的性別:",
		AltText: "請選擇性別",
		Choices: []models.Choice{
			button(models.Action{Kind: models.ActionSetupGender, Gender: models.GenderMale}),
			button(models.Action{Kind: models.ActionSetupGender, Gender: models.GenderFemale}),
		},
	}
}

func activityPrompt(kind models.ActionKind) models.Message {
	msg := models.Message{Kind: models.MessageCarousel, AltText: "請選擇活動量級別"}
	for _, l := range models.ActivityLevels {
		msg.Choices = append(msg.Choices, column(models.Action{Kind: kind, Activity: l}, activityCards[l]))
	}
	return msg
}

func adviceConfirmPrompt() models.Message {
	return models.Message{
		Kind:    models.MessageConfirm,
		Text:    "確定要開始客製化飲食建議流程嗎？",
		AltText: "飲食建議確認",
		Choices: []models.Choice{
			{Action: models.Action{Kind: models.ActionPlanStart}, Label: "是"},
			{Action: models.Action{Kind: models.ActionPlanCancel}, Label: "否"},
		},
	}
}

func mealTypePrompt() models.Message {
	msg := models.Message{Kind: models.MessageButtons, Title: "用餐方式", Text: "選擇用餐方式", AltText: "選擇用餐方式"}
	for _, t := range models.MealTypes {
		msg.Choices = append(msg.Choices, button(models.Action{Kind: models.ActionMealType, MealType: t}))
	}
	return msg
}

func cuisinePrompt() models.Message {
	msg := models.Message{Kind: models.MessageCarousel, AltText: "選擇餐點風格"}
	for _, c := range models.Cuisines {
		msg.Choices = append(msg.Choices, column(models.Action{Kind: models.ActionCuisine, Cuisine: c}, cuisineCards[c]))
	}
	return msg
}

func requirementPrompt() models.Message {
	msg := models.Message{Kind: models.MessageCarousel, AltText: "選擇飲食需求"}
	for _, r := range models.Requirements {
		msg.Choices = append(msg.Choices, column(models.Action{Kind: models.ActionRequirement, Requirement: r}, requirementCards[r]))
	}
	return msg
}

func mealTimePrompt() models.Message {
	msg := models.Message{Kind: models.MessageCarousel, AltText: "選擇用餐時間"}
	for _, m := range models.MealTimes {
		msg.Choices = append(msg.Choices, column(models.Action{Kind: models.ActionMealTime, MealTime: m}, mealTimeCards[m]))
	}
	return msg
}

// formatNumber prints a float without trailing zeros ("165", "1976.25").
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func profileLines(sb *strings.Builder, body models.BodyProfile) {
	fmt.Fprintf(sb, "目標: %s\n", body.Goal)
	fmt.Fprintf(sb, "性別: %s\n", body.Gender.Label())
	fmt.Fprintf(sb, "年齡: %d 歲\n", body.Age)
	fmt.Fprintf(sb, "身高: %s 公分\n", formatNumber(body.Height))
	fmt.Fprintf(sb, "體重: %s 公斤\n", formatNumber(body.Weight))
	fmt.Fprintf(sb, "活動量: %s\n", body.Activity)
}

func setupSummary(body models.BodyProfile, bmr, daily float64) string {
	var sb strings.Builder
	sb.WriteString("您的基本資料:\n")
	profileLines(&sb, body)
	fmt.Fprintf(&sb, "\n您的基礎代謝率(BMR): %s 大卡\n", formatNumber(bmr))
	fmt.Fprintf(&sb, "建議每日熱量攝取: %s 大卡\n\n", formatNumber(daily))
	sb.WriteString("現在您可以開始記錄每日飲食了！ (輸入「Help」可查看指令)")
	return sb.String()
}

func statusReport(body models.BodyProfile, t *models.DailyTracker) string {
	var sb strings.Builder
	sb.WriteString("👤 個人資料:\n")
	profileLines(&sb, body)
	sb.WriteString("\n📊 今日熱量狀態:\n")
	fmt.Fprintf(&sb, "總建議熱量: %s 大卡\n", formatNumber(nutrition.Round2(t.TotalCalories)))
	fmt.Fprintf(&sb, "已消耗熱量: %s 大卡\n", formatNumber(nutrition.Round2(t.ConsumedCalories)))
	fmt.Fprintf(&sb, "剩餘可攝取熱量: %s 大卡\n\n", formatNumber(nutrition.Round2(t.Remaining())))
	sb.WriteString("🍽️ 今日食物記錄:\n")
	for _, f := range t.FoodLog {
		fmt.Fprintf(&sb, "%s - %s (%s 大卡)\n", f.Time, f.Name, formatNumber(nutrition.Round2(f.Calories)))
	}
	return sb.String()
}

func logSuccess(name string, calories, remaining float64) string {
	return fmt.Sprintf("已成功記錄 %s (%s 大卡)。\n剩餘可攝取熱量：%s 大卡", name, formatNumber(calories), formatNumber(nutrition.Round2(remaining)))
}

func planRequest(p *models.PlanSession, target float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "請為一位想要%s的客戶", p.Requirement)
	fmt.Fprintf(&sb, "提供一份%s的%s風格菜單。", p.MealTime, p.Cuisine)
	fmt.Fprintf(&sb, "飲食方式為%s，", p.MealType)
	fmt.Fprintf(&sb, "客戶需求攝取熱量為%s大卡。", formatNumber(nutrition.Round2(target)))
	fmt.Fprintf(&sb, "其他特殊需求：%s。", p.Extra)
	sb.WriteString("需要付上每一項餐點的熱量，並於最後告知這份菜單的總熱量。")
	return sb.String()
}
