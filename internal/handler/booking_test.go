package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpoint/court-booking/internal/middleware"
	"github.com/matchpoint/court-booking/internal/model"
	"github.com/matchpoint/court-booking/internal/repository"
	"github.com/matchpoint/court-booking/internal/service"
)

func newBookingHandler(t *testing.T) (*BookingHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewBookingHandler(
		repository.NewBookingRepo(db),
		repository.NewCourtRepo(db),
		repository.NewUserRepo(db),
		service.NewEventPublisher(""),
	)
	return h, mock
}

func createCtx(t *testing.T, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxUserID, userID)
	c.Set(middleware.CtxRole, model.RoleUser)
	return c, rec
}

func userRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "phone", "role",
		"approval_status", "approved_by", "approved_at", "is_active", "created_at", "updated_at"}).
		AddRow(12, "Tia", "tia@example.com", "hash", nil, "user", "none", nil, nil, true, now, now)
}

func courtRow(now time.Time, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "owner_id", "name", "sport", "description",
		"price_per_hour", "open_hour", "close_hour", "is_active", "created_at", "updated_at"}).
		AddRow(3, 9, "Center Court", "badminton", nil, 200000.0, "08:00:00", "22:00:00", active, now, now)
}

func TestCreateBookingMissingFields(t *testing.T) {
	h, mock := newBookingHandler(t)

	c, rec := createCtx(t, `{"court_id":3,"date":"2026-09-01"}`, 12)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet(), "field validation must run before any query")
}

func TestCreateBookingUnknownUser(t *testing.T) {
	h, mock := newBookingHandler(t)

	mock.ExpectQuery("FROM users WHERE id").
		WillReturnError(sql.ErrNoRows)

	c, rec := createCtx(t, `{"court_id":3,"date":"2026-09-01","start_time":"18:00","end_time":"19:30"}`, 12)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingInactiveCourt(t *testing.T) {
	h, mock := newBookingHandler(t)
	now := time.Now()

	mock.ExpectQuery("FROM users WHERE id").WillReturnRows(userRow(now))
	mock.ExpectQuery("FROM courts WHERE id").WillReturnRows(courtRow(now, false))

	c, rec := createCtx(t, `{"court_id":3,"date":"2026-09-01","start_time":"18:00","end_time":"19:30"}`, 12)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingEmptySlot(t *testing.T) {
	h, mock := newBookingHandler(t)
	now := time.Now()

	mock.ExpectQuery("FROM users WHERE id").WillReturnRows(userRow(now))
	mock.ExpectQuery("FROM courts WHERE id").WillReturnRows(courtRow(now, true))

	c, rec := createCtx(t, `{"court_id":3,"date":"2026-09-01","start_time":"19:30","end_time":"18:00"}`, 12)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet(), "slot validation must run before the insert transaction")
}

func TestCreateBookingConflict(t *testing.T) {
	h, mock := newBookingHandler(t)
	now := time.Now()

	mock.ExpectQuery("FROM users WHERE id").WillReturnRows(userRow(now))
	mock.ExpectQuery("FROM courts WHERE id").WillReturnRows(courtRow(now, true))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectRollback()

	c, rec := createCtx(t, `{"court_id":3,"date":"2026-09-01","start_time":"18:30","end_time":"19:30"}`, 12)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingSuccessPricing(t *testing.T) {
	h, mock := newBookingHandler(t)
	now := time.Now().UTC().Truncate(time.Second)
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM users WHERE id").WillReturnRows(userRow(now))
	mock.ExpectQuery("FROM courts WHERE id").WillReturnRows(courtRow(now, true))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM bookings").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery("FROM bookings WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "reference", "user_id", "court_id",
			"booking_date", "start_time", "end_time", "total_amount", "status", "payment_status",
			"payment_method", "notes", "created_at", "updated_at"}).
			AddRow(42, "ref-1", 12, 3, date, "18:00:00", "19:30:00",
				300000.0, "pending", "pending", nil, nil, now, now))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM bookings b").
		WillReturnRows(sqlmock.NewRows([]string{"id", "reference", "user_id", "court_id",
			"booking_date", "start_time", "end_time", "total_amount", "status", "payment_status",
			"payment_method", "notes", "created_at", "updated_at", "court_name", "sport", "user_name"}).
			AddRow(42, "ref-1", 12, 3, date, "18:00:00", "19:30:00",
				300000.0, "pending", "pending", nil, nil, now, now,
				"Center Court", "badminton", "Tia"))

	// 1.5 hours at 200000/hour must come out to exactly 300000, and the
	// response carries the court and user display fields, not just the row.
	c, rec := createCtx(t, `{"court_id":3,"date":"2026-09-01","start_time":"18:00","end_time":"19:30"}`, 12)
	require.NoError(t, h.Create(c))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			TotalAmount float64 `json:"total_amount"`
			CourtName   string  `json:"court_name"`
			Sport       string  `json:"sport"`
			UserName    *string `json:"user_name"`
		}
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.InDelta(t, 300000, resp.Data.TotalAmount, 1e-9)
	assert.Equal(t, "Center Court", resp.Data.CourtName)
	assert.Equal(t, "badminton", resp.Data.Sport)
	require.NotNil(t, resp.Data.UserName)
	assert.Equal(t, "Tia", *resp.Data.UserName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
