// Package queue defines message payloads exchanged over the broker and the
// background consumer that turns them into notifications.
package queue

// Queue names.  The publisher and consumer must agree on these.
const (
	BookingCreatedQueue      = "booking.created"
	RegistrationDecidedQueue = "registration.decided"
)

// BookingCreatedEvent is published when a booking is accepted.  It carries
// enough for downstream consumers to notify the user and the court owner
// without querying the primary database.
type BookingCreatedEvent struct {
	BookingID   uint64  `json:"booking_id"`
	Reference   string  `json:"reference"`
	UserID      *uint64 `json:"user_id,omitempty"`
	CourtID     uint64  `json:"court_id"`
	CourtName   string  `json:"court_name"`
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	TotalAmount float64 `json:"total_amount"`
	CreatedAt   string  `json:"created_at"`
}

// RegistrationDecidedEvent is published when an admin approves or rejects
// an owner registration.
type RegistrationDecidedEvent struct {
	RegistrationID uint64  `json:"registration_id"`
	BusinessName   string  `json:"business_name"`
	ApplicantEmail string  `json:"applicant_email"`
	Decision       string  `json:"decision"`
	AdminID        uint64  `json:"admin_id"`
	CreatedUserID  *uint64 `json:"created_user_id,omitempty"`
	DecidedAt      string  `json:"decided_at"`
}
