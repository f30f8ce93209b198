package profile

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/loops-platforms/loops-backend/internal/db"
)

// GET /user/:id/profile
func GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	var (
		id         string
		name       string
		role       string
		reputation int
		storeName  *string
		storeLogo  *string
		createdAt  time.Time
	)

	query := `
		SELECT id, name, role, reputation, store_name, store_logo_url, created_at
		FROM profiles
		WHERE id = $1
	`

	err := db.Conn.QueryRow(context.Background(), query, userID).Scan(
		&id,
		&name,
		&role,
		&reputation,
		&storeName,
		&storeLogo,
		&createdAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "failed to fetch user",
			"details": err.Error(),
		})
	}

	// Rating summary from reviews received
	var totalReviews int
	var avgRating float64
	_ = db.Conn.QueryRow(context.Background(),
		`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE reviewee_id = $1`, userID,
	).Scan(&totalReviews, &avgRating)

	profile := echo.Map{
		"id":             id,
		"name":           name,
		"role":           role,
		"reputation":     reputation,
		"total_reviews":  totalReviews,
		"average_rating": avgRating,
		"created_at":     createdAt.Format(time.RFC3339),
	}
	if storeName != nil {
		profile["store_name"] = *storeName
	}
	if storeLogo != nil {
		profile["store_logo_url"] = *storeLogo
	}

	return c.JSON(http.StatusOK, profile)
}
