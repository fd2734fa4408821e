package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/matchpoint/court-booking/internal/database"
	"github.com/matchpoint/court-booking/internal/model"
)

// BookingRepo provides persistence for the bookings table, including the
// conflict-checked create that is the heart of the booking engine.
type BookingRepo struct{ db *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for cross-repository transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `id, reference, user_id, court_id, booking_date, start_time, end_time,
	total_amount, status, payment_status, payment_method, notes, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (model.Booking, error) {
	var (
		b      model.Booking
		userID sql.NullInt64
		date   time.Time
		method sql.NullString
		notes  sql.NullString
	)
	err := row.Scan(&b.ID, &b.Reference, &userID, &b.CourtID, &date, &b.StartTime, &b.EndTime,
		&b.TotalAmount, &b.Status, &b.PaymentStatus, &method, &notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		b.UserID = &v
	}
	b.Date = date.Format("2006-01-02")
	if method.Valid {
		b.PaymentMethod = &method.String
	}
	if notes.Valid {
		b.Notes = &notes.String
	}
	return b, nil
}

// CreateNoOverlap inserts a booking if and only if its slot does not
// overlap any pending or confirmed booking for the same court and date.
// The overlap check and the insert run in one transaction, with FOR UPDATE
// locking the candidate rows, so two concurrent requests for the same slot
// serialize instead of both passing the check (the check-then-insert
// pattern alone is racy).  Returns ErrSlotTaken on conflict.
//
// The caller supplies the parsed slot so validation and pricing happen
// before any row is written.  On success b is populated with the stored
// row including defaults and timestamps.
//
// The whole transaction retries on transient connection faults; a genuine
// conflict (ErrSlotTaken) is terminal and surfaces immediately.
func (r *BookingRepo) CreateNoOverlap(ctx context.Context, b *model.Booking, slot model.Slot) error {
	return database.WithRetry(ctx, "booking.create", func(ctx context.Context) error {
		return r.createNoOverlapTx(ctx, b, slot)
	})
}

func (r *BookingRepo) createNoOverlapTx(ctx context.Context, b *model.Booking, slot model.Slot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// True interval overlap on half-open [start, end): adjacent slots
	// sharing an endpoint do not conflict.
	const overlapQ = `SELECT id FROM bookings
		WHERE court_id = ? AND booking_date = ?
		  AND status IN ('pending','confirmed')
		  AND NOT (end_time <= ? OR start_time >= ?)
		LIMIT 1
		FOR UPDATE`
	var clashID uint64
	err = tx.QueryRowContext(ctx, overlapQ, b.CourtID, slot.Date, slot.StartSQL(), slot.EndSQL()).Scan(&clashID)
	if err == nil {
		return ErrSlotTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	const insertQ = `INSERT INTO bookings
		(reference, user_id, court_id, booking_date, start_time, end_time, total_amount, status, payment_status, notes)
		VALUES (?,?,?,?,?,?,?,?,?,?)`
	res, err := tx.ExecContext(ctx, insertQ,
		b.Reference, b.UserID, b.CourtID, slot.Date, slot.StartSQL(), slot.EndSQL(),
		b.TotalAmount, model.BookingPending, model.PaymentPending, b.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	got, err := scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*b = got
	return nil
}

// BookingDetail joins a booking with court and user display fields.
type BookingDetail struct {
	model.Booking
	CourtName string  `json:"court_name"`
	Sport     string  `json:"sport"`
	UserName  *string `json:"user_name,omitempty"`
}

const detailQ = `SELECT b.id, b.reference, b.user_id, b.court_id, b.booking_date,
		b.start_time, b.end_time, b.total_amount, b.status, b.payment_status,
		b.payment_method, b.notes, b.created_at, b.updated_at,
		c.name, c.sport, u.name
	FROM bookings b
	JOIN courts c ON c.id = b.court_id
	LEFT JOIN users u ON u.id = b.user_id`

func scanDetail(row interface{ Scan(...any) error }) (BookingDetail, error) {
	var (
		d        BookingDetail
		userID   sql.NullInt64
		date     time.Time
		method   sql.NullString
		notes    sql.NullString
		userName sql.NullString
	)
	err := row.Scan(&d.ID, &d.Reference, &userID, &d.CourtID, &date, &d.StartTime, &d.EndTime,
		&d.TotalAmount, &d.Status, &d.PaymentStatus, &method, &notes, &d.CreatedAt, &d.UpdatedAt,
		&d.CourtName, &d.Sport, &userName)
	if err != nil {
		return BookingDetail{}, err
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		d.UserID = &v
	}
	d.Date = date.Format("2006-01-02")
	if method.Valid {
		d.PaymentMethod = &method.String
	}
	if notes.Valid {
		d.Notes = &notes.String
	}
	if userName.Valid {
		d.UserName = &userName.String
	}
	return d, nil
}

// GetDetail returns a booking joined with display fields.
func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (*BookingDetail, error) {
	d, err := scanDetail(r.db.QueryRowContext(ctx, detailQ+" WHERE b.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByIDForUser returns a booking detail, enforcing that it belongs to the
// given user.  ErrForbidden covers a booking owned by someone else.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*BookingDetail, error) {
	d, err := r.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.UserID == nil || *d.UserID != userID {
		return nil, ErrForbidden
	}
	return d, nil
}

// ListByUser returns the user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, detailQ+` WHERE b.user_id = ? ORDER BY b.created_at DESC, b.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]BookingDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListByCourtForOwner returns every booking on a court after verifying the
// caller owns that court.  sql.ErrNoRows from the ownership probe becomes
// ErrCourtNotFound; a mismatched owner becomes ErrForbidden.
func (r *BookingRepo) ListByCourtForOwner(ctx context.Context, courtID, ownerID uint64) ([]BookingDetail, error) {
	var actualOwner uint64
	err := r.db.QueryRowContext(ctx, "SELECT owner_id FROM courts WHERE id = ?", courtID).Scan(&actualOwner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourtNotFound
	}
	if err != nil {
		return nil, err
	}
	if actualOwner != ownerID {
		return nil, ErrForbidden
	}

	rows, err := r.db.QueryContext(ctx,
		detailQ+` WHERE b.court_id = ? ORDER BY b.booking_date DESC, b.start_time DESC`, courtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]BookingDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// BookingUpdate is a sparse set of mutable booking fields.  Nil means
// "leave unchanged".  Reschedule is deliberately absent: slot fields are
// immutable after creation.
type BookingUpdate struct {
	Status        *model.BookingStatus
	PaymentStatus *model.PaymentStatus
	PaymentMethod *string
	TotalAmount   *float64
	Notes         *string
}

// Empty reports whether the update carries no fields.
func (u BookingUpdate) Empty() bool {
	return u.Status == nil && u.PaymentStatus == nil && u.PaymentMethod == nil &&
		u.TotalAmount == nil && u.Notes == nil
}

// UpdateFields applies a sparse update.  When actorOwnerID is non-nil the
// booking's court must belong to that owner (admins pass nil).  Status and
// payment-status changes are validated against the forward-only transition
// rules; ErrBadTransition rejects anything else.  Returns the updated row.
func (r *BookingRepo) UpdateFields(ctx context.Context, id uint64, actorOwnerID *uint64, u BookingUpdate) (*model.Booking, error) {
	if u.Empty() {
		return nil, ErrNoFields
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		curStatus  model.BookingStatus
		curPayment model.PaymentStatus
		courtOwner uint64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT b.status, b.payment_status, c.owner_id
		 FROM bookings b JOIN courts c ON c.id = b.court_id
		 WHERE b.id = ? FOR UPDATE`, id).Scan(&curStatus, &curPayment, &courtOwner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if actorOwnerID != nil && courtOwner != *actorOwnerID {
		return nil, ErrForbidden
	}

	set := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if u.Status != nil {
		if !u.Status.Valid() || !curStatus.CanTransition(*u.Status) {
			return nil, ErrBadTransition
		}
		set = append(set, "status = ?")
		args = append(args, *u.Status)
	}
	if u.PaymentStatus != nil {
		if !u.PaymentStatus.Valid() || !curPayment.CanTransition(*u.PaymentStatus) {
			return nil, ErrBadTransition
		}
		set = append(set, "payment_status = ?")
		args = append(args, *u.PaymentStatus)
	}
	if u.PaymentMethod != nil {
		set = append(set, "payment_method = ?")
		args = append(args, *u.PaymentMethod)
	}
	if u.TotalAmount != nil {
		set = append(set, "total_amount = ?")
		args = append(args, *u.TotalAmount)
	}
	if u.Notes != nil {
		set = append(set, "notes = ?")
		args = append(args, *u.Notes)
	}
	args = append(args, id)

	if _, err := tx.ExecContext(ctx,
		"UPDATE bookings SET "+strings.Join(set, ", ")+" WHERE id = ?", args...); err != nil {
		return nil, err
	}

	got, err := scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &got, nil
}

// CompleteFinished marks confirmed bookings whose slot has fully passed as
// completed.  Run periodically by the background sweep.
func (r *BookingRepo) CompleteFinished(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = 'completed'
		 WHERE status = 'confirmed'
		   AND (booking_date < ? OR (booking_date = ? AND end_time <= ?))`,
		now.Format("2006-01-02"), now.Format("2006-01-02"), now.Format("15:04:05"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
