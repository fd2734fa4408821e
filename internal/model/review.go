package model

import "time"

// Rating bounds for court reviews.
const (
	MinRating = 1
	MaxRating = 5
)

// Review mirrors the `reviews` table.  A review is tied to exactly one
// completed booking (booking_id is unique), which is what entitles the
// author to review the court.
type Review struct {
	ID         uint64     `json:"id"`
	BookingID  uint64     `json:"booking_id"`
	CourtID    uint64     `json:"court_id"`
	UserID     uint64     `json:"user_id"`
	Rating     int        `json:"rating"`
	Comment    *string    `json:"comment,omitempty"`
	OwnerReply *string    `json:"owner_reply,omitempty"`
	RepliedAt  *time.Time `json:"replied_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
