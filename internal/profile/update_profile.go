package profile

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loops-platforms/loops-backend/internal/db"
)

type UpdateProfileRequest struct {
	Name           string `json:"name"`
	WhatsAppNumber string `json:"whatsapp_number"`
	StoreName      string `json:"store_name"`
	StoreLogoURL   string `json:"store_logo_url"`
}

// PATCH /user/profile
func UpdateProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	query := `
		UPDATE profiles
		SET name = COALESCE(NULLIF($1, ''), name),
		    whatsapp_number = COALESCE(NULLIF($2, ''), whatsapp_number),
		    store_name = COALESCE(NULLIF($3, ''), store_name),
		    store_logo_url = COALESCE(NULLIF($4, ''), store_logo_url)
		WHERE id = $5
	`
	_, err := db.Conn.Exec(c.Request().Context(), query, req.Name, req.WhatsAppNumber, req.StoreName, req.StoreLogoURL, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "profile updated successfully",
	})
}
