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

// ReviewWithDetails is a review joined with the reviewer's name
type ReviewWithDetails struct {
	ID           string    `json:"id"`
	LoopID       string    `json:"loop_id"`
	ReviewerID   string    `json:"reviewer_id"`
	ReviewerName string    `json:"reviewer_name"`
	RevieweeID   string    `json:"reviewee_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

// SellerRatingSummary aggregates a seller's received reviews
type SellerRatingSummary struct {
	SellerID      string  `json:"seller_id"`
	SellerName    string  `json:"seller_name"`
	TotalReviews  int     `json:"total_reviews"`
	AverageRating float64 `json:"average_rating"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

// CreateReview - buyer reviews a completed loop after the fact.
// The reviewee gets a +10 reputation grant on this path.
func CreateReview(c echo.Context) error {
	buyerID, ok := c.Get("user_id").(string)
	if !ok || buyerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	loopID := c.Param("id")
	if loopID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing loop id"})
	}
	if _, err := uuid.Parse(loopID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid loop id format"})
	}

	var req CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if !ValidRating(req.Rating) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}
	if len(req.Comment) > 1000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "comment too long (max 1000 characters)"})
	}

	ctx := context.Background()

	var sellerID string
	var status LoopStatus
	err := db.Conn.QueryRow(ctx,
		`SELECT seller_id, status FROM loops WHERE id = $1 AND buyer_id = $2`,
		loopID, buyerID,
	).Scan(&sellerID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "loop not found or not yours"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch loop"})
	}

	if status != LoopCompleted {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "can only review completed loops"})
	}

	var existingReviewID string
	err = db.Conn.QueryRow(ctx, `SELECT id FROM reviews WHERE loop_id = $1`, loopID).Scan(&existingReviewID)
	if err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "review already exists for this loop"})
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check existing review"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	reviewID := uuid.New().String()
	var comment *string
	if req.Comment != "" {
		comment = &req.Comment
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO reviews (id, loop_id, reviewer_id, reviewee_id, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		reviewID, loopID, buyerID, sellerID, req.Rating, comment, time.Now(),
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create review"})
	}

	if _, err := AddReputation(ctx, tx, sellerID, 10); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to award reputation"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"review_id": reviewID,
		"message":   "Review created successfully",
	})
}

// GetSellerReviews returns all reviews for a seller with a rating summary
func GetSellerReviews(c echo.Context) error {
	sellerID := c.Param("id")
	if sellerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing seller id"})
	}

	page := 1
	limit := 10
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if p, err := strconv.Atoi(pageParam); err == nil && p > 0 {
			page = p
		}
	}
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 && l <= 50 {
			limit = l
		}
	}

	offset := (page - 1) * limit
	ctx := context.Background()

	var summary SellerRatingSummary
	summary.SellerID = sellerID
	err := db.Conn.QueryRow(ctx, `SELECT name FROM profiles WHERE id = $1`, sellerID).Scan(&summary.SellerName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seller not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch seller"})
	}

	err = db.Conn.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE reviewee_id = $1`,
		sellerID,
	).Scan(&summary.TotalReviews, &summary.AverageRating)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch rating summary"})
	}

	reviewRows, err := db.Conn.Query(ctx,
		`SELECT r.id, r.loop_id, r.reviewer_id, p.name, r.reviewee_id, r.rating, COALESCE(r.comment, ''), r.created_at
		 FROM reviews r
		 JOIN profiles p ON r.reviewer_id = p.id
		 WHERE r.reviewee_id = $1
		 ORDER BY r.created_at DESC
		 LIMIT $2 OFFSET $3`,
		sellerID, limit, offset,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reviews"})
	}
	defer reviewRows.Close()

	var reviews []ReviewWithDetails
	for reviewRows.Next() {
		var review ReviewWithDetails
		if err := reviewRows.Scan(
			&review.ID, &review.LoopID, &review.ReviewerID, &review.ReviewerName,
			&review.RevieweeID, &review.Rating, &review.Comment, &review.CreatedAt,
		); err != nil {
			continue
		}
		reviews = append(reviews, review)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"seller_summary": summary,
		"reviews":        reviews,
		"pagination": echo.Map{
			"page":  page,
			"limit": limit,
			"total": summary.TotalReviews,
		},
	})
}
