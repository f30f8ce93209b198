package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

type waConfig struct {
	AccessToken   string
	PhoneNumberID string
	APIURL        string
}

var waCfg waConfig

// ConfigureWhatsAppFromEnv loads WhatsApp Business API config from environment
// Required: WHATSAPP_ACCESS_TOKEN, WHATSAPP_PHONE_NUMBER_ID; Optional: WHATSAPP_API_URL
func ConfigureWhatsAppFromEnv() error {
	waCfg = waConfig{
		AccessToken:   os.Getenv("WHATSAPP_ACCESS_TOKEN"),
		PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		APIURL:        os.Getenv("WHATSAPP_API_URL"),
	}
	if waCfg.APIURL == "" {
		waCfg.APIURL = "https://graph.facebook.com/v21.0"
	}
	if waCfg.AccessToken == "" || waCfg.PhoneNumberID == "" {
		return fmt.Errorf("whatsapp not configured: set WHATSAPP_ACCESS_TOKEN and WHATSAPP_PHONE_NUMBER_ID")
	}
	return nil
}

type waTemplateComponent struct {
	Type       string        `json:"type"`
	Parameters []waParameter `json:"parameters"`
}

type waParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type waResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// waPost performs the HTTP request to the Graph API messages endpoint.
// Success means the response carries at least one message id.
func waPost(ctx context.Context, body map[string]any) error {
	if waCfg.AccessToken == "" {
		if err := ConfigureWhatsAppFromEnv(); err != nil {
			return err
		}
	}

	b, _ := json.Marshal(body)
	url := strings.TrimRight(waCfg.APIURL, "/") + "/" + waCfg.PhoneNumberID + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+waCfg.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out waResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("whatsapp send failed: status=%d", resp.StatusCode)
	}
	if out.Error != nil {
		return fmt.Errorf("whatsapp send failed: %s", out.Error.Message)
	}
	if len(out.Messages) == 0 {
		return fmt.Errorf("whatsapp send failed: status=%d no message id", resp.StatusCode)
	}
	return nil
}

// SendWhatsAppText sends a free-text message
func SendWhatsAppText(ctx context.Context, to, text string) error {
	return waPost(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	})
}

// SendWhatsAppTemplate sends a pre-approved template message with body parameters
func SendWhatsAppTemplate(ctx context.Context, to, templateName, languageCode string, params []string) error {
	parameters := make([]waParameter, 0, len(params))
	for _, p := range params {
		parameters = append(parameters, waParameter{Type: "text", Text: p})
	}
	return waPost(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template": map[string]any{
			"name":       templateName,
			"language":   map[string]string{"code": languageCode},
			"components": []waTemplateComponent{{Type: "body", Parameters: parameters}},
		},
	})
}

// ApprovalMessage is the default free-text congratulation for plug approvals
func ApprovalMessage(fullName, storeName string) string {
	return fmt.Sprintf(
		"CONGRATULATIONS %s! Your Founding Plug application for %q has been APPROVED.\n\nYou are now part of the Founding 50. Please wait for the full launch sequence.\n\nLOOPS PLATFORMS",
		strings.ToUpper(fullName), storeName,
	)
}

// NotifyPlugApproval delivers the approval over WhatsApp: the approved template
// first, free text as fallback. A custom message skips the template entirely.
// Returns the strategy that landed ("template" or "text").
func NotifyPlugApproval(ctx context.Context, to, fullName, storeName, customMessage string) (string, error) {
	if customMessage == "" {
		if err := SendWhatsAppTemplate(ctx, to, "founding_plug_approval", "en_US", []string{fullName, storeName}); err == nil {
			return "template", nil
		}
	}

	message := customMessage
	if message == "" {
		message = ApprovalMessage(fullName, storeName)
	}
	if err := SendWhatsAppText(ctx, to, message); err != nil {
		return "", err
	}
	return "text", nil
}
