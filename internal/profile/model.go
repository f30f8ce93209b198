package profile

import "time"

type Profile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // never return
	Role           string    `json:"role"`
	Reputation     int       `json:"reputation"`
	WhatsAppNumber string    `json:"whatsapp_number,omitempty"`
	StoreName      string    `json:"store_name,omitempty"`
	StoreLogoURL   string    `json:"store_logo_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
