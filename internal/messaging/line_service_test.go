package messaging

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/BTreeMap/MealMate/internal/models"
)

type fakeLineAPI struct {
	replies []*messaging_api.ReplyMessageRequest
	pushes  []*messaging_api.PushMessageRequest
	content map[string][]byte
	err     error
}

func (f *fakeLineAPI) Reply(ctx context.Context, req *messaging_api.ReplyMessageRequest) error {
	f.replies = append(f.replies, req)
	return f.err
}

func (f *fakeLineAPI) Push(ctx context.Context, req *messaging_api.PushMessageRequest) error {
	f.pushes = append(f.pushes, req)
	return f.err
}

func (f *fakeLineAPI) Content(ctx context.Context, messageID string) (io.ReadCloser, error) {
	data, ok := f.content[messageID]
	if !ok {
		return nil, errors.New("404")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

const testSecret = "test-channel-secret"

func signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	return req
}

func TestLineService_ReplyRendersTemplates(t *testing.T) {
	api := &fakeLineAPI{}
	svc := newLineService(LineOpts{ChannelSecret: testSecret}, api)

	buttons := models.Message{Kind: models.MessageButtons, Title: "歡迎使用Meal Mate！", Text: "請選擇您的目標:", AltText: "請選擇目標",
		Choices: []models.Choice{{Action: models.Action{Kind: models.ActionSetupGoal, Goal: models.GoalCut}, Label: "減重", Echo: "減重"}}}
	carousel := models.Message{Kind: models.MessageCarousel, AltText: "請選擇活動量級別",
		Choices: []models.Choice{{Action: models.Action{Kind: models.ActionSetupActivity, Activity: models.ActivityLight}, Label: "選擇", Echo: "輕度活動", Title: "輕度活動", Description: "運動 1-3 次/週", ThumbnailURL: "https://example.com/a.jpg"}}}

	if err := svc.Reply(context.Background(), "reply-token", models.TextMessage("hi"), buttons, carousel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.replies) != 1 || api.replies[0].ReplyToken != "reply-token" {
		t.Fatalf("expected one reply with token, got %+v", api.replies)
	}
	msgs := api.replies[0].Messages
	if text, ok := msgs[0].(*messaging_api.TextMessage); !ok || text.Text != "hi" {
		t.Errorf("expected text message first, got %#v", msgs[0])
	}

	tm, ok := msgs[1].(*messaging_api.TemplateMessage)
	if !ok || tm.AltText != "請選擇目標" {
		t.Fatalf("expected buttons template message, got %#v", msgs[1])
	}
	bt, ok := tm.Template.(*messaging_api.ButtonsTemplate)
	if !ok || bt.Title != "歡迎使用Meal Mate！" {
		t.Fatalf("expected buttons template, got %#v", tm.Template)
	}
	action := bt.Actions[0].(*messaging_api.PostbackAction)
	if action.Data != "goal_減重" || action.Text != "減重" || action.Label != "減重" {
		t.Errorf("unexpected postback action %+v", action)
	}

	ct := msgs[2].(*messaging_api.TemplateMessage).Template.(*messaging_api.CarouselTemplate)
	col := ct.Columns[0]
	if col.Title != "輕度活動" || col.Text != "運動 1-3 次/週" || col.ThumbnailImageUrl != "https://example.com/a.jpg" {
		t.Errorf("unexpected carousel column %+v", col)
	}
	if col.Actions[0].(*messaging_api.PostbackAction).Data != "activity_2" {
		t.Errorf("unexpected column action data")
	}

	receipt := <-svc.Receipts()
	if receipt.To != "reply-token" || receipt.Status != models.MessageStatusSent {
		t.Errorf("unexpected receipt %+v", receipt)
	}
}

func TestLineService_PushFailureEmitsFailedReceipt(t *testing.T) {
	api := &fakeLineAPI{err: errors.New("boom")}
	svc := newLineService(LineOpts{}, api)
	if err := svc.Push(context.Background(), "U1", models.TextMessage("x")); err == nil {
		t.Fatal("expected error")
	}
	if r := <-svc.Receipts(); r.Status != models.MessageStatusFailed || r.To != "U1" {
		t.Errorf("unexpected receipt %+v", r)
	}
}

func TestLineService_RejectsTooManyMessages(t *testing.T) {
	svc := newLineService(LineOpts{}, &fakeLineAPI{})
	msgs := make([]models.Message, MaxLineMessages+1)
	if err := svc.Reply(context.Background(), "t", msgs...); err == nil {
		t.Error("expected error for too many messages")
	}
	if err := svc.Reply(context.Background(), "t"); !errors.Is(err, ErrNoMessages) {
		t.Errorf("expected ErrNoMessages, got %v", err)
	}
}

func TestLineService_StoppedRefusesToSend(t *testing.T) {
	svc := newLineService(LineOpts{}, &fakeLineAPI{})
	if err := svc.Stop(); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("second stop should be a no-op, got %v", err)
	}
	if err := svc.Push(context.Background(), "U1", models.TextMessage("x")); !errors.Is(err, ErrServiceStopped) {
		t.Errorf("expected ErrServiceStopped, got %v", err)
	}
}

func TestLineService_FetchContent(t *testing.T) {
	api := &fakeLineAPI{content: map[string][]byte{"img1": []byte("jpegbytes"), "big": make([]byte, 64)}}
	svc := newLineService(LineOpts{MaxContent: 32}, api)

	data, err := svc.FetchContent(context.Background(), "img1")
	if err != nil || string(data) != "jpegbytes" {
		t.Fatalf("unexpected content %q, err %v", data, err)
	}
	if _, err := svc.FetchContent(context.Background(), "missing"); !errors.Is(err, ErrContentNotFound) {
		t.Errorf("expected ErrContentNotFound, got %v", err)
	}
	if _, err := svc.FetchContent(context.Background(), "big"); err == nil {
		t.Error("expected size limit error")
	}
}

const lineCallback = `{"destination":"Ubot","events":[
{"type":"follow","mode":"active","timestamp":1,"source":{"type":"user","userId":"U1"},"webhookEventId":"E1","deliveryContext":{"isRedelivery":false},"replyToken":"R1","follow":{"isUnblocked":false}},
{"type":"message","mode":"active","timestamp":2,"source":{"type":"user","userId":"U1"},"webhookEventId":"E2","deliveryContext":{"isRedelivery":false},"replyToken":"R2","message":{"type":"text","id":"m1","quoteToken":"q1","text":"今日狀態"}},
{"type":"message","mode":"active","timestamp":3,"source":{"type":"user","userId":"U1"},"webhookEventId":"E3","deliveryContext":{"isRedelivery":false},"replyToken":"R3","message":{"type":"image","id":"m2","quoteToken":"q2","contentProvider":{"type":"line"}}},
{"type":"postback","mode":"active","timestamp":4,"source":{"type":"user","userId":"U1"},"webhookEventId":"E4","deliveryContext":{"isRedelivery":false},"replyToken":"R4","postback":{"data":"activity_3"}},
{"type":"message","mode":"active","timestamp":5,"source":{"type":"group","groupId":"G1","userId":"U2"},"webhookEventId":"E5","deliveryContext":{"isRedelivery":false},"replyToken":"R5","message":{"type":"text","id":"m3","quoteToken":"q3","text":"hi"}}
]}`

func TestLineService_ParseWebhook(t *testing.T) {
	svc := newLineService(LineOpts{ChannelSecret: testSecret}, &fakeLineAPI{})
	events, err := svc.ParseWebhook(signedRequest(t, lineCallback))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 user events, got %d: %+v", len(events), events)
	}
	if events[0].Kind != models.EventFollow || events[0].ID != "E1" || events[0].ReplyToken != "R1" {
		t.Errorf("unexpected follow event %+v", events[0])
	}
	if events[1].Kind != models.EventText || events[1].Text != "今日狀態" {
		t.Errorf("unexpected text event %+v", events[1])
	}
	if events[2].Kind != models.EventImage || events[2].ContentID != "m2" {
		t.Errorf("unexpected image event %+v", events[2])
	}
	if events[3].Kind != models.EventPostback || events[3].Action.Activity != models.ActivityModerate {
		t.Errorf("unexpected postback event %+v", events[3])
	}
	if !svc.EchoesSelections() {
		t.Error("LINE posts the tapped label back as text")
	}
}

func TestLineService_ParseWebhookBadSignature(t *testing.T) {
	svc := newLineService(LineOpts{ChannelSecret: testSecret}, &fakeLineAPI{})
	req := signedRequest(t, lineCallback)
	req.Header.Set("X-Line-Signature", "bm90LWEtc2lnbmF0dXJl")
	if _, err := svc.ParseWebhook(req); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}
