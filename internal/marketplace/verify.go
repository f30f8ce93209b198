package marketplace

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/loops-platforms/loops-backend/internal/alerts"
	"github.com/loops-platforms/loops-backend/internal/db"
)

// IssueHandshake - seller generates a fresh handoff token for in-person completion.
// The token is shown to the buyer (QR/code) and consumed by VerifyHandshake.
func IssueHandshake(c echo.Context) error {
	sellerID, ok := c.Get("user_id").(string)
	if !ok || sellerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	loopID := c.Param("id")
	if loopID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing loop id in URL"})
	}

	ctx := context.Background()

	loop, err := fetchLoop(ctx, loopID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "loop not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch loop"})
	}

	if loop.SellerID != sellerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the vendor can issue a handshake token"})
	}
	if !CanHandshakeComplete(loop.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "loop is already completed"})
	}

	token := uuid.New().String()
	res, err := db.Conn.Exec(ctx,
		`UPDATE loops SET handshake_token = $1, updated_at = NOW()
		 WHERE id = $2 AND status IN ('pending','vendor_confirmed')`,
		token, loopID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "loop is already completed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "token": token})
}

// VerifyHandshake - token-based completion. The token match, status guard and
// token consumption are one conditional UPDATE, so a replayed token cannot
// complete the loop twice.
func VerifyHandshake(c echo.Context) error {
	loopID := c.Param("id")
	if loopID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing loop id in URL"})
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification token is required"})
	}

	ctx := context.Background()

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	defer tx.Rollback(ctx)

	var buyerID, sellerID, listingID string
	var amount float64
	err = tx.QueryRow(ctx,
		`UPDATE loops
		 SET status = 'completed', buyer_confirmed_at = NOW(), handshake_token = NULL, updated_at = NOW()
		 WHERE id = $1 AND handshake_token = $2 AND status IN ('pending','vendor_confirmed')
		 RETURNING buyer_id, seller_id, listing_id, amount`,
		loopID, req.Token,
	).Scan(&buyerID, &sellerID, &listingID, &amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token or loop already completed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}

	// Same completion side effects as buyer confirmation
	if _, err := AddReputation(ctx, tx, sellerID, 10); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	if _, err := AddReputation(ctx, tx, buyerID, 5); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	if _, err := tx.Exec(ctx, `UPDATE listings SET status = 'sold' WHERE id = $1`, listingID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}

	// Notify both parties (best-effort)
	var sellerEmail string
	_ = db.Conn.QueryRow(ctx, `SELECT email FROM profiles WHERE id = $1`, sellerID).Scan(&sellerEmail)
	if sellerEmail != "" {
		_ = alerts.EnqueueLoopCompleted(loopID, buyerID, sellerID, sellerEmail, amount)
	}
	_ = alerts.CreateNotification(sellerID, "loop_completed", "Loop completed", "Handshake verified in person.", &loopID)
	_ = alerts.CreateNotification(buyerID, "loop_completed", "Loop completed", "Handshake verified in person.", &loopID)

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Handshake verified. Loop completed."})
}
