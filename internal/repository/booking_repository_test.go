package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpoint/court-booking/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func bookingCols() []string {
	return []string{"id", "reference", "user_id", "court_id", "booking_date",
		"start_time", "end_time", "total_amount", "status", "payment_status",
		"payment_method", "notes", "created_at", "updated_at"}
}

func TestCreateNoOverlapConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM bookings").
		WithArgs(uint64(3), "2026-09-01", "18:00:00", "19:30:00").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectRollback()

	slot, err := model.ParseSlot("2026-09-01", "18:00", "19:30")
	require.NoError(t, err)

	uid := uint64(12)
	b := &model.Booking{Reference: "ref-1", UserID: &uid, CourtID: 3, TotalAmount: 300000}
	err = repo.CreateNoOverlap(context.Background(), b, slot)

	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet(), "no insert may happen after a conflict")
}

func TestCreateNoOverlapSuccess(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM bookings").
		WithArgs(uint64(3), "2026-09-01", "18:00:00", "19:30:00").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ?")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(bookingCols()).AddRow(
			42, "ref-1", 12, 3, date, "18:00:00", "19:30:00",
			300000.0, "pending", "pending", nil, nil, now, now))
	mock.ExpectCommit()

	slot, err := model.ParseSlot("2026-09-01", "18:00", "19:30")
	require.NoError(t, err)

	uid := uint64(12)
	b := &model.Booking{Reference: "ref-1", UserID: &uid, CourtID: 3, TotalAmount: 300000}
	require.NoError(t, repo.CreateNoOverlap(context.Background(), b, slot))

	assert.Equal(t, uint64(42), b.ID)
	assert.Equal(t, "2026-09-01", b.Date)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, model.PaymentPending, b.PaymentStatus)
	assert.InDelta(t, 300000, b.TotalAmount, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFieldsRejectsBackwardTransition(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT b.status, b.payment_status, c.owner_id").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "payment_status", "owner_id"}).
			AddRow("completed", "paid", 9))
	mock.ExpectRollback()

	st := model.BookingPending
	_, err := repo.UpdateFields(context.Background(), 42, nil, BookingUpdate{Status: &st})

	assert.ErrorIs(t, err, ErrBadTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFieldsOwnershipCheck(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT b.status, b.payment_status, c.owner_id").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "payment_status", "owner_id"}).
			AddRow("pending", "pending", 9))
	mock.ExpectRollback()

	other := uint64(8)
	st := model.BookingConfirmed
	_, err := repo.UpdateFields(context.Background(), 42, &other, BookingUpdate{Status: &st})

	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFieldsSparseSet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT b.status, b.payment_status, c.owner_id").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "payment_status", "owner_id"}).
			AddRow("pending", "pending", 9))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = ?, payment_status = ? WHERE id = ?")).
		WithArgs(model.BookingConfirmed, model.PaymentPaid, uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ?")).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows(bookingCols()).AddRow(
			42, "ref-1", 12, 3, date, "18:00:00", "19:30:00",
			300000.0, "confirmed", "paid", nil, nil, now, now))
	mock.ExpectCommit()

	owner := uint64(9)
	st := model.BookingConfirmed
	ps := model.PaymentPaid
	got, err := repo.UpdateFields(context.Background(), 42, &owner, BookingUpdate{Status: &st, PaymentStatus: &ps})

	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, got.Status)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFieldsEmpty(t *testing.T) {
	db, _ := newMock(t)
	repo := NewBookingRepo(db)

	_, err := repo.UpdateFields(context.Background(), 42, nil, BookingUpdate{})
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestCompleteFinished(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	now := time.Date(2026, 8, 28, 21, 30, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE bookings SET status = 'completed'").
		WithArgs("2026-08-28", "2026-08-28", "21:30:00").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.CompleteFinished(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
