package marketplace

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/loops-platforms/loops-backend/internal/db"
)

// CreateListing allows a plug to post a new listing on the marketplace
func CreateListing(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Type        string  `json:"type"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Title == "" || req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and a non-negative price are required"})
	}
	if req.Type == "" {
		req.Type = "product"
	}
	if req.Type != "product" && req.Type != "service" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be product or service"})
	}

	listingID := uuid.New().String()

	_, err := db.Conn.Exec(
		context.Background(),
		`INSERT INTO listings (id, seller_id, title, description, price, type, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 'active', $7)`,
		listingID, uid, req.Title, req.Description, req.Price, req.Type, time.Now(),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create listing"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"listing_id": listingID,
		"message":    "listing created successfully",
	})
}

// GetAllListings returns active listings, newest first
func GetAllListings(c echo.Context) error {
	limit := 20
	offset := 0
	if l := c.QueryParam("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, seller_id, title, COALESCE(description, ''), price, type, status, created_at
		 FROM listings WHERE status = 'active'
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listings"})
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var l Listing
		if err := rows.Scan(&l.ID, &l.SellerID, &l.Title, &l.Description, &l.Price, &l.Type, &l.Status, &l.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		listings = append(listings, l)
	}

	return c.JSON(http.StatusOK, echo.Map{"listings": listings})
}

// GetUserListings returns the caller's own listings regardless of status
func GetUserListings(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, seller_id, title, COALESCE(description, ''), price, type, status, created_at
		 FROM listings WHERE seller_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listings"})
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var l Listing
		if err := rows.Scan(&l.ID, &l.SellerID, &l.Title, &l.Description, &l.Price, &l.Type, &l.Status, &l.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		listings = append(listings, l)
	}

	return c.JSON(http.StatusOK, echo.Map{"listings": listings})
}

// fetchPurchasable loads a listing and checks it can be bought by the given buyer.
// Authorization and availability are checked here so loop creation and offers
// share one gate.
func fetchPurchasable(ctx context.Context, listingID, buyerID string) (*Listing, int, string) {
	var l Listing
	err := db.Conn.QueryRow(ctx,
		`SELECT id, seller_id, title, COALESCE(description, ''), price, type, status, created_at
		 FROM listings WHERE id = $1`, listingID,
	).Scan(&l.ID, &l.SellerID, &l.Title, &l.Description, &l.Price, &l.Type, &l.Status, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, http.StatusNotFound, "listing not found"
		}
		return nil, http.StatusInternalServerError, "failed to fetch listing"
	}

	if l.Status != ListingActive {
		return nil, http.StatusBadRequest, "listing is no longer available"
	}
	if l.SellerID == buyerID {
		return nil, http.StatusBadRequest, "you cannot buy your own items"
	}
	return &l, 0, ""
}
