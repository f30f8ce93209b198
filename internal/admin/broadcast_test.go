package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/loops-platforms/loops-backend/internal/alerts"
)

func TestPersonalizeMessage(t *testing.T) {
	got := PersonalizeMessage("Hey {name}, launch is live!", "Ada")
	if got != "Hey Ada, launch is live!" {
		t.Errorf("unexpected personalization: %q", got)
	}
}

func TestPersonalizeMessageWithoutName(t *testing.T) {
	msg := "Hey {name}, launch is live!"
	if got := PersonalizeMessage(msg, ""); got != msg {
		t.Errorf("empty name should leave the message untouched, got %q", got)
	}
}

func TestPersonalizeMessageWithoutPlaceholder(t *testing.T) {
	msg := "Launch is live!"
	if got := PersonalizeMessage(msg, "Ada"); got != msg {
		t.Errorf("message without placeholder should pass through, got %q", got)
	}
}

func startWhatsAppStub(t *testing.T, status int, response string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("WHATSAPP_ACCESS_TOKEN", "test-token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "12345")
	t.Setenv("WHATSAPP_API_URL", srv.URL)
	if err := alerts.ConfigureWhatsAppFromEnv(); err != nil {
		t.Fatalf("configure whatsapp: %v", err)
	}
}

func TestBroadcastOneDelivers(t *testing.T) {
	startWhatsAppStub(t, http.StatusOK, `{"messages":[{"id":"wamid.ok"}]}`)

	r := Recipient{ID: "app-1", FullName: "Ada", WhatsAppNumber: "2348000000000"}
	res := broadcastOne(context.Background(), r, "Hey {name}!")
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.ID != "app-1" {
		t.Errorf("result keyed by wrong id: %q", res.ID)
	}
}

func TestBroadcastOneMissingNumber(t *testing.T) {
	r := Recipient{ID: "app-2", FullName: "Ada"}
	res := broadcastOne(context.Background(), r, "Hey!")
	if res.Success {
		t.Fatalf("expected failure for missing phone number")
	}
	if res.Error != "no phone number" {
		t.Errorf("unexpected error %q", res.Error)
	}
}

func TestBroadcastOneFallsBackToNumberAsID(t *testing.T) {
	startWhatsAppStub(t, http.StatusOK, `{"messages":[{"id":"wamid.ok"}]}`)

	r := Recipient{WhatsAppNumber: "2348000000000"}
	res := broadcastOne(context.Background(), r, "Hey!")
	if res.ID != "2348000000000" {
		t.Errorf("expected phone number as fallback id, got %q", res.ID)
	}
}

func TestBroadcastOneProviderFailure(t *testing.T) {
	startWhatsAppStub(t, http.StatusBadRequest, `{"error":{"message":"recipient not on whatsapp"}}`)

	r := Recipient{ID: "app-3", WhatsAppNumber: "2348000000000"}
	res := broadcastOne(context.Background(), r, "Hey!")
	if res.Success {
		t.Fatalf("expected failure from provider error")
	}
	if res.Error == "" {
		t.Errorf("expected provider error to surface in result")
	}
}
