package alerts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeGraphAPI stands in for the Graph API messages endpoint. Each request
// body is recorded; the reply function decides success per request.
type fakeGraphAPI struct {
	requests []map[string]any
	reply    func(body map[string]any) (int, string)
}

func (f *fakeGraphAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		f.requests = append(f.requests, body)

		status, resp := http.StatusOK, `{"messages":[{"id":"wamid.test"}]}`
		if f.reply != nil {
			status, resp = f.reply(body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}
}

func configureWhatsApp(t *testing.T, apiURL string) {
	t.Helper()
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "test-token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "12345")
	t.Setenv("WHATSAPP_API_URL", apiURL)
	if err := ConfigureWhatsAppFromEnv(); err != nil {
		t.Fatalf("configure whatsapp: %v", err)
	}
}

func TestSendWhatsAppTextSuccess(t *testing.T) {
	fake := &fakeGraphAPI{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()
	configureWhatsApp(t, srv.URL)

	if err := SendWhatsAppText(context.Background(), "2348000000000", "hello"); err != nil {
		t.Fatalf("send text: %v", err)
	}

	if len(fake.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(fake.requests))
	}
	req := fake.requests[0]
	if req["type"] != "text" {
		t.Errorf("expected text message, got %v", req["type"])
	}
	if req["to"] != "2348000000000" {
		t.Errorf("unexpected recipient %v", req["to"])
	}
}

func TestSendWhatsAppTextAPIError(t *testing.T) {
	fake := &fakeGraphAPI{
		reply: func(map[string]any) (int, string) {
			return http.StatusBadRequest, `{"error":{"message":"recipient not on whatsapp"}}`
		},
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()
	configureWhatsApp(t, srv.URL)

	err := SendWhatsAppText(context.Background(), "2348000000000", "hello")
	if err == nil {
		t.Fatalf("expected error from API failure")
	}
}

func TestSendWhatsAppTemplateCarriesParameters(t *testing.T) {
	fake := &fakeGraphAPI{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()
	configureWhatsApp(t, srv.URL)

	err := SendWhatsAppTemplate(context.Background(), "2348000000000", "founding_plug_approval", "en_US", []string{"Ada", "Ada's Kitchen"})
	if err != nil {
		t.Fatalf("send template: %v", err)
	}

	req := fake.requests[0]
	if req["type"] != "template" {
		t.Fatalf("expected template message, got %v", req["type"])
	}
	tmpl, _ := req["template"].(map[string]any)
	if tmpl["name"] != "founding_plug_approval" {
		t.Errorf("unexpected template name %v", tmpl["name"])
	}
}

func TestNotifyPlugApprovalPrefersTemplate(t *testing.T) {
	fake := &fakeGraphAPI{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()
	configureWhatsApp(t, srv.URL)

	strategy, err := NotifyPlugApproval(context.Background(), "2348000000000", "Ada", "Ada's Kitchen", "")
	if err != nil {
		t.Fatalf("notify approval: %v", err)
	}
	if strategy != "template" {
		t.Errorf("expected template strategy, got %q", strategy)
	}
	if len(fake.requests) != 1 {
		t.Errorf("expected a single request, got %d", len(fake.requests))
	}
}

func TestNotifyPlugApprovalFallsBackToText(t *testing.T) {
	fake := &fakeGraphAPI{}
	fake.reply = func(body map[string]any) (int, string) {
		if body["type"] == "template" {
			return http.StatusBadRequest, `{"error":{"message":"template not approved"}}`
		}
		return http.StatusOK, `{"messages":[{"id":"wamid.fallback"}]}`
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()
	configureWhatsApp(t, srv.URL)

	strategy, err := NotifyPlugApproval(context.Background(), "2348000000000", "Ada", "Ada's Kitchen", "")
	if err != nil {
		t.Fatalf("notify approval: %v", err)
	}
	if strategy != "text" {
		t.Errorf("expected text fallback, got %q", strategy)
	}
	if len(fake.requests) != 2 {
		t.Fatalf("expected template attempt then text fallback, got %d requests", len(fake.requests))
	}
	if fake.requests[0]["type"] != "template" || fake.requests[1]["type"] != "text" {
		t.Errorf("unexpected request order: %v then %v", fake.requests[0]["type"], fake.requests[1]["type"])
	}
}

func TestNotifyPlugApprovalCustomMessageSkipsTemplate(t *testing.T) {
	fake := &fakeGraphAPI{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()
	configureWhatsApp(t, srv.URL)

	strategy, err := NotifyPlugApproval(context.Background(), "2348000000000", "Ada", "Ada's Kitchen", "Welcome aboard, Ada!")
	if err != nil {
		t.Fatalf("notify approval: %v", err)
	}
	if strategy != "text" {
		t.Errorf("expected text strategy for custom message, got %q", strategy)
	}
	if len(fake.requests) != 1 {
		t.Fatalf("expected a single text request, got %d", len(fake.requests))
	}
	if fake.requests[0]["type"] != "text" {
		t.Errorf("expected text message, got %v", fake.requests[0]["type"])
	}
	text, _ := fake.requests[0]["text"].(map[string]any)
	if text["body"] != "Welcome aboard, Ada!" {
		t.Errorf("custom message not delivered verbatim: %v", text["body"])
	}
}

func TestApprovalMessageUppercasesName(t *testing.T) {
	msg := ApprovalMessage("Ada Obi", "Ada's Kitchen")
	if !strings.HasPrefix(msg, "CONGRATULATIONS ADA OBI!") {
		t.Errorf("approval message should open with the uppercased name, got %q", msg)
	}
}
