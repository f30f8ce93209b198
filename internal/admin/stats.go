package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loops-platforms/loops-backend/internal/db"
)

// GET /admin/stats
func Stats(c echo.Context) error {
	ctx := context.Background()

	var profiles, listings, loops, completedLoops, offers, reviews, pendingApps int

	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&profiles)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM listings`).Scan(&listings)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM loops`).Scan(&loops)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM loops WHERE status = 'completed'`).Scan(&completedLoops)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM offers`).Scan(&offers)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&reviews)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE status = 'pending'`).Scan(&pendingApps)

	return c.JSON(http.StatusOK, echo.Map{
		"profiles":             profiles,
		"listings":             listings,
		"loops":                loops,
		"completed_loops":      completedLoops,
		"offers":               offers,
		"reviews":              reviews,
		"pending_applications": pendingApps,
	})
}
