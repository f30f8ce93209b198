package profile

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/loops-platforms/loops-backend/internal/db"
)

type applyRequest struct {
	FullName       string `json:"full_name"`
	CampusEmail    string `json:"campus_email"`
	WhatsappNumber string `json:"whatsapp_number"`
	StoreName      string `json:"store_name"`
	StoreLogoURL   string `json:"store_logo_url"`
}

// ApplyAsPlug - submit a vendor application for admin review
func ApplyAsPlug(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if role, _ := c.Get("role").(string); role == "plug" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "you are already a vendor"})
	}

	var req applyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.FullName == "" || req.StoreName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name and store_name are required"})
	}

	ctx := c.Request().Context()

	var pending int
	err := db.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM applications WHERE user_id = $1 AND status = 'pending'`, userID,
	).Scan(&pending)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check existing applications"})
	}
	if pending > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "you already have a pending application"})
	}

	appID := uuid.New().String()
	_, err = db.Conn.Exec(ctx, `
		INSERT INTO applications (id, user_id, full_name, campus_email, whatsapp_number, store_name, store_logo_url)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''))
	`, appID, userID, req.FullName, req.CampusEmail, req.WhatsappNumber, req.StoreName, req.StoreLogoURL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to submit application"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":        true,
		"application_id": appID,
		"message":        "Application submitted. You will be notified once it is reviewed.",
	})
}
