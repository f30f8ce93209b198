package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/loops-platforms/loops-backend/internal/alerts"
)

// Recipient is one target of a WhatsApp broadcast
type Recipient struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	WhatsAppNumber string `json:"whatsapp_number"`
}

// BroadcastResult is the per-recipient entry in the broadcast response
type BroadcastResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// PersonalizeMessage substitutes the {name} placeholder for a recipient
func PersonalizeMessage(message, fullName string) string {
	if fullName == "" {
		return message
	}
	return strings.ReplaceAll(message, "{name}", fullName)
}

// POST /admin/broadcast
// Sends a WhatsApp message to each recipient; one failure never aborts the rest.
func Broadcast(c echo.Context) error {
	adminID, ok := c.Get("user_id").(string)
	if !ok || adminID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Recipients []Recipient `json:"recipients"`
		Message    string      `json:"message"`
	}
	if err := c.Bind(&req); err != nil || len(req.Recipients) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no recipients provided"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message content is required"})
	}

	ctx := context.Background()

	results := make([]BroadcastResult, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		results = append(results, broadcastOne(ctx, r, req.Message))
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "results": results})
}

func broadcastOne(ctx context.Context, r Recipient, message string) BroadcastResult {
	id := r.ID
	if id == "" {
		id = r.WhatsAppNumber
	}
	if r.WhatsAppNumber == "" {
		return BroadcastResult{ID: id, Success: false, Error: "no phone number"}
	}

	waCtx, cancel := context.WithTimeout(ctx, notificationTimeout)
	defer cancel()

	if err := alerts.SendWhatsAppText(waCtx, r.WhatsAppNumber, PersonalizeMessage(message, r.FullName)); err != nil {
		return BroadcastResult{ID: id, Success: false, Error: err.Error()}
	}
	return BroadcastResult{ID: id, Success: true}
}
