package model

import (
	"errors"
	"time"
)

// BookingStatus enumerates the lifecycle states of a booking.  Transitions
// only move forward: a cancelled or completed booking never changes again.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Valid reports whether s is one of the known booking statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further status transition is permitted.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// CanTransition reports whether moving from s to next is a legal forward
// transition.  pending may become confirmed or cancelled; confirmed may
// become completed or cancelled.  Terminal states accept nothing.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	switch s {
	case BookingPending:
		return next == BookingConfirmed || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingCompleted || next == BookingCancelled
	}
	return false
}

// PaymentStatus enumerates the payment states of a booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether p is one of the known payment statuses.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// CanTransition reports whether moving from p to next is legal.  Payments
// only move pending -> paid -> refunded.
func (p PaymentStatus) CanTransition(next PaymentStatus) bool {
	switch p {
	case PaymentPending:
		return next == PaymentPaid
	case PaymentPaid:
		return next == PaymentRefunded
	}
	return false
}

// Booking corresponds to a row in the `bookings` table.  UserID is nullable
// to accommodate guest bookings created at the front desk.  TotalAmount is
// stored at full precision; rounding to the currency's minor unit happens
// only at display time.
type Booking struct {
	ID            uint64        `json:"id"`
	Reference     string        `json:"reference"`
	UserID        *uint64       `json:"user_id,omitempty"`
	CourtID       uint64        `json:"court_id"`
	Date          string        `json:"date"`       // YYYY-MM-DD
	StartTime     string        `json:"start_time"` // HH:MM:SS
	EndTime       string        `json:"end_time"`   // HH:MM:SS
	TotalAmount   float64       `json:"total_amount"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod *string       `json:"payment_method,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var (
	// ErrBadSlot is returned when a date or time field cannot be parsed.
	ErrBadSlot = errors.New("invalid date or time format")
	// ErrEmptySlot is returned when the end does not come strictly after
	// the start on the same calendar date.
	ErrEmptySlot = errors.New("end time must be after start time")
)

// Slot is a half-open [Start, End) interval on one calendar date for one
// court.  Both endpoints fall on the same date; cross-midnight ranges are
// rejected at parse time rather than silently mis-priced.
type Slot struct {
	Date  string
	Start time.Time
	End   time.Time
}

// ParseSlot validates and combines a calendar date with wall-clock start and
// end times.  Times accept HH:MM or HH:MM:SS.  It returns ErrBadSlot for
// malformed input and ErrEmptySlot when the range is empty or inverted.
func ParseSlot(date, start, end string) (Slot, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return Slot{}, ErrBadSlot
	}
	st, err := parseClock(start)
	if err != nil {
		return Slot{}, ErrBadSlot
	}
	et, err := parseClock(end)
	if err != nil {
		return Slot{}, ErrBadSlot
	}
	s := Slot{
		Date:  d.Format(dateLayout),
		Start: time.Date(d.Year(), d.Month(), d.Day(), st.Hour(), st.Minute(), st.Second(), 0, time.UTC),
		End:   time.Date(d.Year(), d.Month(), d.Day(), et.Hour(), et.Minute(), et.Second(), 0, time.UTC),
	}
	if !s.End.After(s.Start) {
		return Slot{}, ErrEmptySlot
	}
	return s, nil
}

func parseClock(v string) (time.Time, error) {
	if t, err := time.Parse("15:04:05", v); err == nil {
		return t, nil
	}
	return time.Parse(timeLayout, v)
}

// Overlaps reports whether two half-open intervals intersect:
// NOT (a.end <= b.start OR a.start >= b.end).  Adjacent slots that share
// only an endpoint do not overlap.
func (s Slot) Overlaps(o Slot) bool {
	if s.Date != o.Date {
		return false
	}
	return !(!s.End.After(o.Start) || !o.End.After(s.Start))
}

// Hours returns the real-valued duration of the slot in hours.  Fractional
// durations (e.g. 1.5h) are allowed.
func (s Slot) Hours() float64 {
	return s.End.Sub(s.Start).Hours()
}

// Price computes hourlyRate x duration at full precision.
func (s Slot) Price(hourlyRate float64) float64 {
	return hourlyRate * s.Hours()
}

// StartSQL and EndSQL format the slot endpoints for the TIME columns.
func (s Slot) StartSQL() string { return s.Start.Format("15:04:05") }
func (s Slot) EndSQL() string   { return s.End.Format("15:04:05") }
