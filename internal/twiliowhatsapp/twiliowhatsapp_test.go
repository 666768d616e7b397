package twiliowhatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
)

func TestMockClient_SendMessage(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient()

	err := mock.SendMessage(ctx, "+886912345678", "Hello Test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mock.SentMessages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(mock.SentMessages))
	}

	if mock.SentMessages[0].Body != "Hello Test" {
		t.Errorf("expected body %q, got %q", "Hello Test", mock.SentMessages[0].Body)
	}
}

func TestAddress(t *testing.T) {
	if got := Address("+15550001111"); got != "whatsapp:+15550001111" {
		t.Errorf("unexpected address %q", got)
	}
	if got := Address("whatsapp:+15550001111"); got != "whatsapp:+15550001111" {
		t.Errorf("prefix should not be doubled, got %q", got)
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error without credentials")
	}
	if _, err := NewClient(WithAccountSID("AC1"), WithAuthToken("tok")); err == nil {
		t.Error("expected error without from number")
	}
	c, err := NewClient(WithAccountSID("AC1"), WithAuthToken("tok"), WithFromWhats("+15550001111"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.fromWhats != "whatsapp:+15550001111" {
		t.Errorf("unexpected from address %q", c.fromWhats)
	}
}

// twilioSignature computes the documented HMAC-SHA1 request signature.
func twilioSignature(token, url string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	payload := url
	for _, k := range keys {
		payload += k + params[k]
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestClient_ValidateSignature(t *testing.T) {
	c, err := NewClient(WithAccountSID("AC1"), WithAuthToken("secret-token"), WithFromWhats("+15550001111"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	url := "https://mealmate.example.com/webhook"
	params := map[string]string{"From": "whatsapp:+886912345678", "Body": "Help"}
	sig := twilioSignature("secret-token", url, params)

	if !c.ValidateSignature(url, params, sig) {
		t.Error("expected valid signature")
	}
	if c.ValidateSignature(url, params, "bogus") {
		t.Error("expected bogus signature to fail")
	}
}

func TestClient_FetchMediaUsesBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC1" || pass != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("jpeg"))
	}))
	defer srv.Close()

	c, err := NewClient(WithAccountSID("AC1"), WithAuthToken("tok"), WithFromWhats("+1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := c.FetchMedia(context.Background(), srv.URL+"/media/1")
	if err != nil || string(data) != "jpeg" {
		t.Fatalf("unexpected media %q, err %v", data, err)
	}

	c.authToken = "wrong"
	if _, err := c.FetchMedia(context.Background(), srv.URL+"/media/1"); err == nil {
		t.Error("expected error on unauthorized download")
	}
}
