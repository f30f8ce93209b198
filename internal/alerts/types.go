package alerts

import "time"

// Task type constants
const (
	TaskWelcomeEmail    = "email:welcome"
	TaskLoopOpened      = "email:loop_opened"
	TaskVendorConfirmed = "email:vendor_confirmed"
	TaskLoopCompleted   = "email:loop_completed"
	TaskOfferAccepted   = "email:offer_accepted"
)

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Welcome email payload
type WelcomeEmailPayload struct {
	UserID   string        `json:"user_id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Loop opened payload (sent to seller)
type LoopOpenedPayload struct {
	LoopID       string        `json:"loop_id"`
	BuyerID      string        `json:"buyer_id"`
	SellerID     string        `json:"seller_id"`
	Email        string        `json:"email"`
	ListingTitle string        `json:"listing_title"`
	Amount       float64       `json:"amount"`
	Envelope     EmailEnvelope `json:"envelope"`
	SentAt       time.Time     `json:"sent_at"`
}

// Vendor confirmed payload (sent to buyer)
type VendorConfirmedPayload struct {
	LoopID   string        `json:"loop_id"`
	BuyerID  string        `json:"buyer_id"`
	SellerID string        `json:"seller_id"`
	Email    string        `json:"email"`
	Amount   float64       `json:"amount"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Loop completed payload (sent to seller)
type LoopCompletedPayload struct {
	LoopID   string        `json:"loop_id"`
	BuyerID  string        `json:"buyer_id"`
	SellerID string        `json:"seller_id"`
	Email    string        `json:"email"`
	Amount   float64       `json:"amount"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Offer accepted payload (sent to buyer)
type OfferAcceptedPayload struct {
	OfferID  string        `json:"offer_id"`
	LoopID   string        `json:"loop_id"`
	BuyerID  string        `json:"buyer_id"`
	SellerID string        `json:"seller_id"`
	Email    string        `json:"email"`
	Amount   float64       `json:"amount"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}
