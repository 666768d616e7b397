package flow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/BTreeMap/MealMate/internal/messaging"
	"github.com/BTreeMap/MealMate/internal/models"
	"github.com/BTreeMap/MealMate/internal/store"
	"github.com/BTreeMap/MealMate/internal/twiliowhatsapp"
)

const twilioUser = "+886900000123"

// twilioHarness drives the router through the WhatsApp transport, so option
// numbers are resolved against the menus the transport actually sent.
type twilioHarness struct {
	t      *testing.T
	client *twiliowhatsapp.MockClient
	svc    *messaging.TwilioService
	router *Router
	users  *store.UserStore
	gen    *fakeGen
}

func newTwilioHarness(t *testing.T) *twilioHarness {
	t.Helper()
	client := twiliowhatsapp.NewMockClient()
	svc := messaging.NewTwilioService(client, "")
	t.Cleanup(func() { svc.Stop() })
	go func() {
		for range svc.Receipts() {
		}
	}()
	gen := &fakeGen{text: "菜單總熱量:1500大卡"}
	users := store.NewUserStore()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)}
	return &twilioHarness{
		t:      t,
		client: client,
		svc:    svc,
		router: NewRouter(users, svc, gen, WithClock(clock.Now), WithLocation(time.UTC)),
		users:  users,
		gen:    gen,
	}
}

func (h *twilioHarness) post(form url.Values) {
	h.t.Helper()
	form.Set("From", twiliowhatsapp.AddressPrefix+twilioUser)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	events, err := h.svc.ParseWebhook(req)
	if err != nil {
		h.t.Fatalf("ParseWebhook failed: %v", err)
	}
	for _, ev := range events {
		if err := h.router.HandleEvent(context.Background(), ev); err != nil {
			h.t.Fatalf("HandleEvent(%+v) failed: %v", ev, err)
		}
	}
}

func (h *twilioHarness) send(body string) {
	h.t.Helper()
	h.post(url.Values{"Body": {body}})
}

// replies returns the bodies sent since the last call.
func (h *twilioHarness) replies() []string {
	var out []string
	for _, m := range h.client.SentMessages {
		out = append(out, m.Body)
	}
	h.client.SentMessages = nil
	return out
}

func (h *twilioHarness) expectReply(want string) {
	h.t.Helper()
	got := h.replies()
	if len(got) != 1 || !strings.Contains(got[0], want) {
		h.t.Fatalf("expected one reply containing %q, got %q", want, got)
	}
}

func (h *twilioHarness) state() models.UserState {
	h.t.Helper()
	var out models.UserState
	if err := h.users.WithUser(context.Background(), twilioUser, func(st *models.UserState) error {
		out = *st
		return nil
	}); err != nil {
		h.t.Fatalf("WithUser failed: %v", err)
	}
	return out
}

func TestTwilio_PhotoDuringSetupKeepsMenu(t *testing.T) {
	h := newTwilioHarness(t)
	h.client.Media["https://api.twilio.com/media/ME1"] = pngBytes(t)
	h.gen.text = "1. 食物名稱：白飯"

	h.send("hi")
	h.expectReply("請選擇您的目標:")
	h.send("2")
	h.expectReply("請選擇您的性別:")

	h.post(url.Values{
		"NumMedia":          {"1"},
		"MediaUrl0":         {"https://api.twilio.com/media/ME1"},
		"MediaContentType0": {"image/jpeg"},
	})
	if got := h.replies(); len(got) != 2 || got[0] != TextImageAck || got[1] != "1. 食物名稱：白飯" {
		t.Fatalf("expected ack and analysis, got %q", got)
	}

	// The gender menu still answers after the photo replies.
	h.send("2")
	h.expectReply(TextAskAge)
	st := h.state()
	if st.Profile.Draft == nil || st.Profile.Draft.Gender == nil || *st.Profile.Draft.Gender != models.GenderFemale {
		t.Errorf("expected female draft, got %+v", st.Profile.Draft)
	}
}

func TestTwilio_NumberedFlowLeavesNoEchoes(t *testing.T) {
	h := newTwilioHarness(t)

	h.send("hi")
	h.expectReply("請選擇您的目標:")
	for _, step := range []struct{ body, want string }{
		{"2", "請選擇您的性別:"},
		{"2", TextAskAge},
		{"25", TextAskHeight},
		{"165", TextAskWeight},
		{"60", messaging.TwilioMenuFooter},
		{"2", "活動量: 輕度活動"},
	} {
		h.send(step.body)
		h.expectReply(step.want)
	}
	if st := h.state(); !st.Profile.Ready() || st.Echo.Pending() != 0 {
		t.Fatalf("expected ready profile without pending echoes, got ready=%v pending=%d", st.Profile.Ready(), st.Echo.Pending())
	}

	h.send(CmdAdvice)
	h.expectReply("確定要開始客製化飲食建議流程嗎？")
	for _, body := range []string{"1", "1", "2", "2"} {
		h.send(body)
		h.replies()
	}
	h.send("6")
	h.expectReply(TextAskExtra)
	if st := h.state(); st.Echo.Pending() != 0 {
		t.Fatalf("expected no pending echoes, got %d", st.Echo.Pending())
	}

	// A goal label typed as a requirement must reach the model.
	h.send("減重")
	if len(h.gen.prompts) != 1 || !strings.Contains(h.gen.prompts[0], "其他特殊需求：減重") {
		t.Fatalf("expected the requirement in one prompt, got %q", h.gen.prompts)
	}
	if got := h.replies(); len(got) != 2 || got[0] != TextPlanAck || got[1] != "菜單總熱量:1500大卡" {
		t.Errorf("expected ack and plan, got %q", got)
	}
	if st := h.state(); st.Plan != nil {
		t.Errorf("session should end after generation, got %+v", st.Plan)
	}
}
