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

// CreateLoop - buyer opens a loop on an active listing
func CreateLoop(c echo.Context) error {
	buyerID, ok := c.Get("user_id").(string)
	if !ok || buyerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		ListingID      string `json:"listing_id"`
		PickupLocation string `json:"pickup_location"`
	}
	if err := c.Bind(&req); err != nil || req.ListingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing_id"})
	}

	ctx := context.Background()

	listing, code, msg := fetchPurchasable(ctx, req.ListingID, buyerID)
	if listing == nil {
		return c.JSON(code, echo.Map{"error": msg})
	}

	// Duplicate-loop check: at most one unresolved loop per (listing, buyer)
	var existingID string
	err := db.Conn.QueryRow(ctx,
		`SELECT id FROM loops
		 WHERE listing_id = $1 AND buyer_id = $2 AND status IN ('pending','vendor_confirmed')`,
		req.ListingID, buyerID,
	).Scan(&existingID)
	if err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "you already have an active loop for this item",
			"loop_id": existingID,
		})
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check existing loops"})
	}

	loopID, err := insertLoop(ctx, db.Conn, req.ListingID, buyerID, listing.SellerID, listing.Price, req.PickupLocation)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create loop"})
	}

	// Tell the seller someone opened a loop (best-effort)
	var sellerEmail string
	_ = db.Conn.QueryRow(ctx, `SELECT email FROM profiles WHERE id = $1`, listing.SellerID).Scan(&sellerEmail)
	if sellerEmail != "" {
		_ = alerts.EnqueueLoopOpened(loopID, buyerID, listing.SellerID, sellerEmail, listing.Title, listing.Price)
	}
	_ = alerts.CreateNotification(listing.SellerID, "loop_opened", "New loop on "+listing.Title, "A buyer wants to close a loop with you.", &loopID)

	message := "Service loop started!"
	if listing.Type == "product" {
		message = "Purchase loop initiated!"
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"loop_id":       loopID,
		"listing_type":  listing.Type,
		"listing_title": listing.Title,
		"message":       message,
	})
}

// loopInserter is satisfied by both *pgxpool.Pool and pgx.Tx.
type loopInserter interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// insertLoop creates a pending loop row. Shared by direct creation and offer
// acceptance so both entry points get identical semantics. The amount is the
// agreed price at this moment; later listing price changes never touch it.
func insertLoop(ctx context.Context, q loopInserter, listingID, buyerID, sellerID string, amount float64, pickupLocation string) (string, error) {
	var pickup *string
	if pickupLocation != "" {
		pickup = &pickupLocation
	}

	loopID := uuid.New().String()
	err := q.QueryRow(ctx,
		`INSERT INTO loops (id, listing_id, buyer_id, seller_id, amount, status, pickup_location, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, 'pending', $6, $7, $7)
		 RETURNING id`,
		loopID, listingID, buyerID, sellerID, amount, pickup, time.Now(),
	).Scan(&loopID)
	if err != nil {
		return "", err
	}
	return loopID, nil
}

// GetUserLoops returns all loops where the caller is buyer or seller
func GetUserLoops(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, listing_id, buyer_id, seller_id, amount, status,
		        COALESCE(pickup_location, ''), COALESCE(vendor_proof_url, ''), COALESCE(buyer_proof_url, ''),
		        vendor_confirmed_at, buyer_confirmed_at, created_at
		 FROM loops WHERE buyer_id = $1 OR seller_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch loops"})
	}
	defer rows.Close()

	var loops []Loop
	for rows.Next() {
		var l Loop
		if err := rows.Scan(&l.ID, &l.ListingID, &l.BuyerID, &l.SellerID, &l.Amount, &l.Status,
			&l.PickupLocation, &l.VendorProofURL, &l.BuyerProofURL,
			&l.VendorConfirmedAt, &l.BuyerConfirmedAt, &l.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		loops = append(loops, l)
	}

	return c.JSON(http.StatusOK, echo.Map{"loops": loops})
}

// fetchLoop loads a loop by id for transition handlers
func fetchLoop(ctx context.Context, loopID string) (*Loop, error) {
	var l Loop
	err := db.Conn.QueryRow(ctx,
		`SELECT id, listing_id, buyer_id, seller_id, amount, status,
		        COALESCE(pickup_location, ''), COALESCE(vendor_proof_url, ''), COALESCE(buyer_proof_url, ''),
		        vendor_confirmed_at, buyer_confirmed_at, created_at
		 FROM loops WHERE id = $1`, loopID,
	).Scan(&l.ID, &l.ListingID, &l.BuyerID, &l.SellerID, &l.Amount, &l.Status,
		&l.PickupLocation, &l.VendorProofURL, &l.BuyerProofURL,
		&l.VendorConfirmedAt, &l.BuyerConfirmedAt, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
