package messaging

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/loops-platforms/loops-backend/internal/alerts"
	"github.com/loops-platforms/loops-backend/internal/db"
)

type Message struct {
	ID        string    `json:"id"`
	LoopID    string    `json:"loop_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

// loopParticipants returns buyer and seller for a loop, or an error if it
// does not exist.
func loopParticipants(ctx context.Context, loopID string) (string, string, error) {
	var buyerID, sellerID string
	err := db.Conn.QueryRow(ctx,
		`SELECT buyer_id, seller_id FROM loops WHERE id = $1`, loopID,
	).Scan(&buyerID, &sellerID)
	return buyerID, sellerID, err
}

// SendMessage - POST /loops/:id/messages
func SendMessage(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	loopID := c.Param("id")

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil || req.Body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message body is required"})
	}
	if len(req.Body) > 4000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message too long"})
	}

	ctx := c.Request().Context()

	buyerID, sellerID, err := loopParticipants(ctx, loopID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "loop not found"})
	}
	if userID != buyerID && userID != sellerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this loop"})
	}

	var msg Message
	err = db.Conn.QueryRow(ctx, `
		INSERT INTO loop_messages (loop_id, sender_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, loop_id, sender_id, body, created_at
	`, loopID, userID, req.Body).Scan(&msg.ID, &msg.LoopID, &msg.SenderID, &msg.Body, &msg.CreatedAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send message"})
	}

	BroadcastNewMessage(loopID, msg)

	recipient := sellerID
	if userID == sellerID {
		recipient = buyerID
	}
	_ = alerts.CreateNotification(recipient, "message", "New message",
		"You have a new message on one of your loops.", &loopID)

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": msg,
	})
}

// ListMessages - GET /loops/:id/messages?since=RFC3339
func ListMessages(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	loopID := c.Param("id")

	ctx := c.Request().Context()

	buyerID, sellerID, err := loopParticipants(ctx, loopID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "loop not found"})
	}
	if userID != buyerID && userID != sellerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this loop"})
	}

	query := `
		SELECT id, loop_id, sender_id, body, created_at
		FROM loop_messages
		WHERE loop_id = $1`
	args := []interface{}{loopID}

	if since := c.QueryParam("since"); since != "" {
		ts, perr := time.Parse(time.RFC3339, since)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid since timestamp, expected RFC3339"})
		}
		query += ` AND created_at > $2`
		args = append(args, ts)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch messages"})
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.LoopID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read messages"})
		}
		messages = append(messages, m)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"loop_id":  loopID,
		"messages": messages,
		"count":    len(messages),
	})
}
