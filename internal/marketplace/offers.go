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

// CreateOffer - buyer proposes a price on an active listing
func CreateOffer(c echo.Context) error {
	buyerID, ok := c.Get("user_id").(string)
	if !ok || buyerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		ListingID string  `json:"listing_id"`
		Amount    float64 `json:"amount"`
	}
	if err := c.Bind(&req); err != nil || req.ListingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing_id"})
	}
	if req.Amount < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be non-negative"})
	}

	ctx := context.Background()

	listing, code, msg := fetchPurchasable(ctx, req.ListingID, buyerID)
	if listing == nil {
		return c.JSON(code, echo.Map{"error": msg})
	}

	offerID := uuid.New().String()
	_, err := db.Conn.Exec(ctx,
		`INSERT INTO offers (id, listing_id, buyer_id, seller_id, amount, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, 'pending', $6, $6)`,
		offerID, req.ListingID, buyerID, listing.SellerID, req.Amount, time.Now(),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create offer"})
	}

	_ = alerts.CreateNotification(listing.SellerID, "offer_received", "New offer on "+listing.Title, "", &offerID)

	return c.JSON(http.StatusCreated, echo.Map{
		"offer_id": offerID,
		"message":  "Offer sent to the seller.",
	})
}

// HandleOffer - seller accepts or rejects a pending offer.
// Acceptance opens a loop with the offer's listing/buyer/seller/amount.
func HandleOffer(c echo.Context) error {
	sellerID, ok := c.Get("user_id").(string)
	if !ok || sellerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	offerID := c.Param("id")
	if offerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing offer id in URL"})
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Action != string(OfferAccepted) && req.Action != string(OfferRejected) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid action"})
	}

	ctx := context.Background()

	var offer Offer
	err := db.Conn.QueryRow(ctx,
		`SELECT id, listing_id, buyer_id, seller_id, amount, status, created_at, updated_at
		 FROM offers WHERE id = $1`, offerID,
	).Scan(&offer.ID, &offer.ListingID, &offer.BuyerID, &offer.SellerID, &offer.Amount, &offer.Status, &offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer"})
	}

	// Actor check before state check
	if offer.SellerID != sellerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the seller can handle this offer"})
	}
	if offer.Status != OfferPending {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "offer is no longer pending"})
	}

	if req.Action == string(OfferRejected) {
		res, err := db.Conn.Exec(ctx,
			`UPDATE offers SET status = 'rejected', updated_at = NOW() WHERE id = $1 AND status = 'pending'`,
			offerID,
		)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update offer"})
		}
		if res.RowsAffected() == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "offer is no longer pending"})
		}

		_ = alerts.CreateNotification(offer.BuyerID, "offer_rejected", "Offer rejected", "", &offerID)

		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Offer rejected."})
	}

	// Accept: mark the offer and open the loop in one transaction
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx,
		`UPDATE offers SET status = 'accepted', updated_at = NOW() WHERE id = $1 AND status = 'pending'`,
		offerID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update offer"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "offer is no longer pending"})
	}

	loopID, err := insertLoop(ctx, tx, offer.ListingID, offer.BuyerID, offer.SellerID, offer.Amount, "")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to open loop"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	// Notify buyer the offer was accepted (best-effort)
	var buyerEmail string
	_ = db.Conn.QueryRow(ctx, `SELECT email FROM profiles WHERE id = $1`, offer.BuyerID).Scan(&buyerEmail)
	if buyerEmail != "" {
		_ = alerts.EnqueueOfferAccepted(offerID, loopID, offer.BuyerID, sellerID, buyerEmail, offer.Amount)
	}
	_ = alerts.CreateNotification(offer.BuyerID, "offer_accepted", "Offer accepted", "A loop has been opened for your offer.", &loopID)

	return c.JSON(http.StatusOK, echo.Map{
		"success":        true,
		"message":        "Offer accepted and loop opened.",
		"transaction_id": loopID,
	})
}
