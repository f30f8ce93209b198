package marketplace

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/loops-platforms/loops-backend/internal/alerts"
	"github.com/loops-platforms/loops-backend/internal/db"
)

// BuyerConfirm - buyer confirms receipt, closing the loop.
// Status change, reputation grants, listing archival and the optional review
// all commit or roll back together.
func BuyerConfirm(c echo.Context) error {
	buyerID, ok := c.Get("user_id").(string)
	if !ok || buyerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	loopID := c.Param("id")
	if loopID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing loop id in URL"})
	}

	var req struct {
		ProofURL string `json:"proof_url"`
		Rating   int    `json:"rating"`
		Review   string `json:"review"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx := context.Background()

	loop, err := fetchLoop(ctx, loopID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "loop not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch loop"})
	}

	// Actor check before state check
	if loop.BuyerID != buyerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the buyer can confirm receipt"})
	}

	if !CanBuyerConfirm(loop.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "vendor must confirm fulfillment first"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	// Complete the loop; the status guard inside the UPDATE closes the window
	// between the check above and this write
	var proof *string
	if req.ProofURL != "" {
		proof = &req.ProofURL
	}
	res, err := tx.Exec(ctx,
		`UPDATE loops
		 SET status = 'completed', buyer_confirmed_at = NOW(), buyer_proof_url = $1, updated_at = NOW()
		 WHERE id = $2 AND status = 'vendor_confirmed'`,
		proof, loopID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm receipt"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "vendor must confirm fulfillment first"})
	}

	// Reputation: +10 seller, +5 buyer
	if _, err := AddReputation(ctx, tx, loop.SellerID, 10); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to award seller reputation"})
	}
	if _, err := AddReputation(ctx, tx, buyerID, 5); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to award buyer reputation"})
	}

	// Archive the listing
	if _, err := tx.Exec(ctx,
		`UPDATE listings SET status = 'sold' WHERE id = $1`, loop.ListingID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to archive listing"})
	}

	// Optional review; out-of-range ratings are ignored rather than rejected
	// so the confirmation itself still lands
	if ValidRating(req.Rating) {
		var comment *string
		if req.Review != "" {
			comment = &req.Review
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO reviews (id, loop_id, reviewer_id, reviewee_id, rating, comment, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New().String(), loopID, buyerID, loop.SellerID, req.Rating, comment, time.Now(),
		); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create review"})
		}
		// Review bonus for the buyer
		if _, err := AddReputation(ctx, tx, buyerID, 5); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to award review bonus"})
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	// Notify seller of completion (best-effort)
	var sellerEmail string
	_ = db.Conn.QueryRow(ctx, `SELECT email FROM profiles WHERE id = $1`, loop.SellerID).Scan(&sellerEmail)
	if sellerEmail != "" {
		_ = alerts.EnqueueLoopCompleted(loopID, buyerID, loop.SellerID, sellerEmail, loop.Amount)
	}
	_ = alerts.CreateNotification(loop.SellerID, "loop_completed", "Loop completed", "The buyer confirmed receipt. Reputation awarded.", &loopID)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Loop closed successfully. Reputation awarded.",
	})
}
