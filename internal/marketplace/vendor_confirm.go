package marketplace

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/loops-platforms/loops-backend/internal/alerts"
	"github.com/loops-platforms/loops-backend/internal/db"
)

// VendorConfirm - seller confirms fulfillment of a pending loop
func VendorConfirm(c echo.Context) error {
	sellerID, ok := c.Get("user_id").(string)
	if !ok || sellerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	loopID := c.Param("id")
	if loopID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing loop id in URL"})
	}

	var req struct {
		ProofURL string `json:"proof_url"`
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
	if loop.SellerID != sellerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the vendor can confirm fulfillment"})
	}

	if !CanVendorConfirm(loop.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "loop is not in pending state"})
	}

	var proof *string
	if req.ProofURL != "" {
		proof = &req.ProofURL
	}
	res, err := db.Conn.Exec(ctx,
		`UPDATE loops
		 SET status = 'vendor_confirmed', vendor_confirmed_at = NOW(), vendor_proof_url = $1, updated_at = NOW()
		 WHERE id = $2 AND status = 'pending'`,
		proof, loopID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm fulfillment"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "loop is not in pending state"})
	}

	// Notify buyer (best-effort)
	var buyerEmail string
	_ = db.Conn.QueryRow(ctx, `SELECT email FROM profiles WHERE id = $1`, loop.BuyerID).Scan(&buyerEmail)
	if buyerEmail != "" {
		_ = alerts.EnqueueVendorConfirmed(loopID, loop.BuyerID, sellerID, buyerEmail, loop.Amount)
	}
	_ = alerts.CreateNotification(loop.BuyerID, "vendor_confirmed", "Vendor confirmed fulfillment", "Confirm receipt to close the loop.", &loopID)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Fulfillment confirmed. Waiting for buyer confirmation.",
	})
}
