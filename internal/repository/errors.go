// Package repository holds the data access layer.  Sentinel errors defined
// here let handlers distinguish failure classes without string matching:
// not-found maps to 404, forbidden to 403 and conflicts to 409.
package repository

import "errors"

var (
	// ErrForbidden is returned when the caller attempts an operation on a
	// resource owned by someone else.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when an operation cannot proceed because of
	// conflicting state, such as deleting a registration that is still
	// pending.
	ErrConflict = errors.New("conflict")

	// ErrSlotTaken is returned by the booking engine when the requested
	// time range overlaps an existing non-cancelled booking for the same
	// court and date.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrEmailExists is returned when an email address is already taken by
	// a user account.
	ErrEmailExists = errors.New("email already exists")

	// ErrRegistrationActive is returned when an email already has a
	// pending or approved owner registration.
	ErrRegistrationActive = errors.New("active registration already exists for this email")

	// ErrAlreadyDecided is returned when an admin decision targets a
	// registration that is no longer pending.
	ErrAlreadyDecided = errors.New("registration already processed")

	// ErrApplicantIncomplete is returned when approving a new-flow
	// registration whose embedded identity fields are missing.
	ErrApplicantIncomplete = errors.New("registration is missing applicant identity")

	// ErrStillPending is returned when deleting a registration that has
	// not been decided yet.
	ErrStillPending = errors.New("registration is still pending")

	// ErrReviewExists is returned when a booking already has a review.
	ErrReviewExists = errors.New("booking already reviewed")

	// ErrNotReviewable is returned when the booking is not completed or
	// does not belong to the reviewer.
	ErrNotReviewable = errors.New("booking cannot be reviewed")

	// ErrNoFields is returned by sparse updates invoked with nothing to
	// change.
	ErrNoFields = errors.New("no fields to update")

	// ErrBadTransition is returned when a status update would move a
	// booking backwards or out of a terminal state.
	ErrBadTransition = errors.New("illegal status transition")
)

// Per-entity not-found sentinels.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrCourtNotFound        = errors.New("court not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrReviewNotFound       = errors.New("review not found")
)
