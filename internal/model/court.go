package model

import "time"

// Court mirrors the `courts` table.  Only active courts are bookable; the
// booking engine treats an inactive court the same as a missing one.
type Court struct {
	ID           uint64    `json:"id"`
	OwnerID      uint64    `json:"owner_id"`
	Name         string    `json:"name"`
	Sport        string    `json:"sport"`
	Description  *string   `json:"description,omitempty"`
	PricePerHour float64   `json:"price_per_hour"`
	OpenHour     string    `json:"open_hour"` // HH:MM:SS, informational opening time
	CloseHour    string    `json:"close_hour"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
