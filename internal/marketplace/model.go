package marketplace

import "time"

// LoopStatus is the closed set of states a loop can be in.
type LoopStatus string

const (
	LoopPending         LoopStatus = "pending"
	LoopVendorConfirmed LoopStatus = "vendor_confirmed"
	LoopCompleted       LoopStatus = "completed"
)

// CanVendorConfirm reports whether a loop in the given state may be vendor-confirmed.
func CanVendorConfirm(s LoopStatus) bool {
	return s == LoopPending
}

// CanBuyerConfirm reports whether a loop in the given state may be buyer-confirmed.
func CanBuyerConfirm(s LoopStatus) bool {
	return s == LoopVendorConfirmed
}

// CanHandshakeComplete reports whether a loop in the given state may still be
// closed via the token handshake. Both live states qualify; completed does not.
func CanHandshakeComplete(s LoopStatus) bool {
	return s == LoopPending || s == LoopVendorConfirmed
}

// IsUnresolved reports whether the state counts against the
// one-open-loop-per-(listing, buyer) rule.
func IsUnresolved(s LoopStatus) bool {
	return s == LoopPending || s == LoopVendorConfirmed
}

// OfferStatus is the closed set of states an offer can be in.
type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

// ListingStatus is the closed set of states a listing can be in.
type ListingStatus string

const (
	ListingActive  ListingStatus = "active"
	ListingSold    ListingStatus = "sold"
	ListingRemoved ListingStatus = "removed"
)

// ValidRating reports whether a review rating is within the accepted 1..5 range.
func ValidRating(r int) bool {
	return r >= 1 && r <= 5
}

// Listing is a sellable item or service posted by a plug
type Listing struct {
	ID          string        `json:"id"`
	SellerID    string        `json:"seller_id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Price       float64       `json:"price"`
	Type        string        `json:"type"` // product, service
	Status      ListingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Loop is a buyer-seller transaction from initiation to completion
type Loop struct {
	ID                string     `json:"id"`
	ListingID         string     `json:"listing_id"`
	BuyerID           string     `json:"buyer_id"`
	SellerID          string     `json:"seller_id"`
	Amount            float64    `json:"amount"`
	Status            LoopStatus `json:"status"`
	PickupLocation    string     `json:"pickup_location,omitempty"`
	VendorProofURL    string     `json:"vendor_proof_url,omitempty"`
	BuyerProofURL     string     `json:"buyer_proof_url,omitempty"`
	VendorConfirmedAt *time.Time `json:"vendor_confirmed_at,omitempty"`
	BuyerConfirmedAt  *time.Time `json:"buyer_confirmed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Offer is a buyer-proposed price on a listing, independent of a loop until accepted
type Offer struct {
	ID        string      `json:"id"`
	ListingID string      `json:"listing_id"`
	BuyerID   string      `json:"buyer_id"`
	SellerID  string      `json:"seller_id"`
	Amount    float64     `json:"amount"`
	Status    OfferStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
