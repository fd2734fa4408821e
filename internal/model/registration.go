package model

import (
	"errors"
	"time"
)

// RegistrationStatus is the state machine of an owner registration request:
// pending -> approved | rejected, exactly once.  Both outcomes are terminal.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// ErrAlreadyDecided is returned when a transition is attempted on a
// registration that is no longer pending.
var ErrAlreadyDecided = errors.New("registration already processed")

// Valid reports whether s is a known registration status.
func (s RegistrationStatus) Valid() bool {
	return s == RegistrationPending || s == RegistrationApproved || s == RegistrationRejected
}

// Terminal reports whether the status permits no further transition.
func (s RegistrationStatus) Terminal() bool {
	return s == RegistrationApproved || s == RegistrationRejected
}

// Approve returns the approved status if the transition is legal.
func (s RegistrationStatus) Approve() (RegistrationStatus, error) {
	if s != RegistrationPending {
		return s, ErrAlreadyDecided
	}
	return RegistrationApproved, nil
}

// Reject returns the rejected status if the transition is legal.
func (s RegistrationStatus) Reject() (RegistrationStatus, error) {
	if s != RegistrationPending {
		return s, ErrAlreadyDecided
	}
	return RegistrationRejected, nil
}

// OwnerRegistration mirrors the `owner_registrations` table.  Two applicant
// shapes coexist: a legacy request references an existing users row via
// UserID, while a new-flow request carries its own identity fields
// (UserName/UserEmail/UserPassword/UserPhone).  UserPassword holds a bcrypt
// hash, never plaintext.
type OwnerRegistration struct {
	ID                  uint64
	UserID              *uint64
	UserName            *string
	UserEmail           *string
	UserPassword        *string
	UserPhone           *string
	BusinessName        string
	BusinessAddress     *string
	BusinessPhone       *string
	BusinessEmail       *string
	BusinessDescription *string
	ExperienceYears     *int
	Status              RegistrationStatus
	AdminNotes          *string
	ReviewedBy          *uint64
	ReviewedAt          *time.Time
	CreatedUserID       *uint64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Applicant is the normalized "who is this person" view of a registration.
// Resolution happens in exactly one place so the embedded-vs-legacy
// preference cannot drift between queries.
type Applicant struct {
	Name  string
	Email string
	Phone string
}

// ResolveApplicant builds an Applicant from a registration, preferring the
// registration's embedded identity fields and falling back to the joined
// legacy user when a field is absent.  legacy may be nil.
func ResolveApplicant(reg *OwnerRegistration, legacy *User) Applicant {
	var a Applicant
	if reg.UserName != nil && *reg.UserName != "" {
		a.Name = *reg.UserName
	} else if legacy != nil {
		a.Name = legacy.Name
	}
	if reg.UserEmail != nil && *reg.UserEmail != "" {
		a.Email = *reg.UserEmail
	} else if legacy != nil {
		a.Email = legacy.Email
	}
	if reg.UserPhone != nil && *reg.UserPhone != "" {
		a.Phone = *reg.UserPhone
	} else if legacy != nil && legacy.Phone != nil {
		a.Phone = *legacy.Phone
	}
	return a
}

// HasEmbeddedIdentity reports whether the registration carries the fields
// required to create a brand-new user on approval.
func (r *OwnerRegistration) HasEmbeddedIdentity() bool {
	return r.UserName != nil && *r.UserName != "" &&
		r.UserEmail != nil && *r.UserEmail != "" &&
		r.UserPassword != nil && *r.UserPassword != ""
}
