package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/loops-platforms/loops-backend/internal/alerts"
	"github.com/loops-platforms/loops-backend/internal/db"
)

// Application is a founding plug application under admin review
type Application struct {
	ID             string     `json:"id"`
	UserID         *string    `json:"user_id,omitempty"`
	FullName       string     `json:"full_name"`
	CampusEmail    string     `json:"campus_email,omitempty"`
	WhatsAppNumber string     `json:"whatsapp_number,omitempty"`
	StoreName      string     `json:"store_name"`
	StoreLogoURL   string     `json:"store_logo_url,omitempty"`
	Status         string     `json:"status"`
	ReviewedBy     *string    `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NotificationOutcome reports which channels reached an applicant
type NotificationOutcome struct {
	Email    bool `json:"email"`
	WhatsApp bool `json:"whatsapp"`
}

// BatchResult is the per-application entry in the approve-batch response
type BatchResult struct {
	ID            string               `json:"id"`
	Success       bool                 `json:"success"`
	Notifications *NotificationOutcome `json:"notifications,omitempty"`
	Error         string               `json:"error,omitempty"`
}

// notificationTimeout bounds each outbound provider call so a hanging
// provider cannot stall the whole batch.
const notificationTimeout = 10 * time.Second

// GET /admin/applications
func ListApplications(c echo.Context) error {
	ctx := context.Background()

	status := c.QueryParam("status")
	if status == "" {
		status = "pending"
	}

	rows, err := db.Conn.Query(ctx,
		`SELECT id, user_id, full_name, COALESCE(campus_email, ''), COALESCE(whatsapp_number, ''),
		        store_name, COALESCE(store_logo_url, ''), status, reviewed_by, reviewed_at, created_at
		 FROM applications WHERE status = $1 ORDER BY created_at ASC`, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch applications"})
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var a Application
		if err := rows.Scan(&a.ID, &a.UserID, &a.FullName, &a.CampusEmail, &a.WhatsAppNumber,
			&a.StoreName, &a.StoreLogoURL, &a.Status, &a.ReviewedBy, &a.ReviewedAt, &a.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read application record"})
		}
		apps = append(apps, a)
	}

	return c.JSON(http.StatusOK, echo.Map{"applications": apps})
}

// POST /admin/applications/approve-batch
// Each application is approved independently; a failure on one is recorded in
// its result entry and the rest of the batch continues.
func ApproveBatch(c echo.Context) error {
	adminID, ok := c.Get("user_id").(string)
	if !ok || adminID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		ApplicationIDs []string `json:"application_ids"`
		GeneralMessage string   `json:"general_message"`
	}
	if err := c.Bind(&req); err != nil || len(req.ApplicationIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no application ids provided"})
	}

	ctx := context.Background()

	results := make([]BatchResult, 0, len(req.ApplicationIDs))
	for _, appID := range req.ApplicationIDs {
		results = append(results, approveOne(ctx, adminID, appID, req.GeneralMessage))
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "results": results})
}

// approveOne approves a single application: status flip, profile promotion,
// then notification dispatch. Notification failures do not fail the item.
func approveOne(ctx context.Context, adminID, appID, generalMessage string) BatchResult {
	var app Application
	err := db.Conn.QueryRow(ctx,
		`SELECT id, user_id, full_name, COALESCE(campus_email, ''), COALESCE(whatsapp_number, ''),
		        store_name, COALESCE(store_logo_url, ''), status, created_at
		 FROM applications WHERE id = $1`, appID,
	).Scan(&app.ID, &app.UserID, &app.FullName, &app.CampusEmail, &app.WhatsAppNumber,
		&app.StoreName, &app.StoreLogoURL, &app.Status, &app.CreatedAt)
	if err != nil {
		return BatchResult{ID: appID, Success: false, Error: "application not found"}
	}

	if app.Status != "pending" {
		return BatchResult{ID: appID, Success: false, Error: "application is not pending"}
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return BatchResult{ID: appID, Success: false, Error: "transaction start failed"}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE applications SET status = 'approved', reviewed_at = NOW(), reviewed_by = $1 WHERE id = $2`,
		adminID, appID,
	); err != nil {
		return BatchResult{ID: appID, Success: false, Error: "failed to approve application"}
	}

	// Promote the linked profile if the applicant is already registered
	if app.UserID != nil && *app.UserID != "" {
		if _, err := tx.Exec(ctx,
			`UPDATE profiles
			 SET role = 'plug', reputation = 100,
			     store_name = $1,
			     store_logo_url = COALESCE(NULLIF($2, ''), store_logo_url)
			 WHERE id = $3`,
			app.StoreName, app.StoreLogoURL, *app.UserID,
		); err != nil {
			return BatchResult{ID: appID, Success: false, Error: "failed to promote profile"}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return BatchResult{ID: appID, Success: false, Error: "commit failed"}
	}

	outcome := notifyApproval(ctx, app, generalMessage)
	return BatchResult{ID: appID, Success: true, Notifications: &outcome}
}

// notifyApproval fans the approval out to email and WhatsApp. Each channel is
// bounded by its own timeout and reported independently.
func notifyApproval(ctx context.Context, app Application, generalMessage string) NotificationOutcome {
	var outcome NotificationOutcome

	if app.CampusEmail != "" {
		err := alerts.SendEmail(app.CampusEmail,
			"Your Founding Plug application is approved",
			"Hey "+app.FullName+",\n\nYour Founding Plug application for "+app.StoreName+" has been approved. Welcome to Loops.",
		)
		outcome.Email = err == nil
	}

	if app.WhatsAppNumber != "" {
		waCtx, cancel := context.WithTimeout(ctx, notificationTimeout)
		defer cancel()
		_, err := alerts.NotifyPlugApproval(waCtx, app.WhatsAppNumber, app.FullName, app.StoreName, generalMessage)
		outcome.WhatsApp = err == nil
	}

	return outcome
}
