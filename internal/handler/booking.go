package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/matchpoint/court-booking/internal/model"
	"github.com/matchpoint/court-booking/internal/queue"
	"github.com/matchpoint/court-booking/internal/repository"
	"github.com/matchpoint/court-booking/internal/service"
)

// BookingHandler serves booking creation, listing and updates.
type BookingHandler struct {
	Bookings  *repository.BookingRepo
	Courts    *repository.CourtRepo
	Users     *repository.UserRepo
	Publisher *service.EventPublisher
}

func NewBookingHandler(b *repository.BookingRepo, co *repository.CourtRepo, u *repository.UserRepo, pub *service.EventPublisher) *BookingHandler {
	return &BookingHandler{Bookings: b, Courts: co, Users: u, Publisher: pub}
}

type createBookingReq struct {
	CourtID   uint64  `json:"court_id"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Notes     *string `json:"notes"`
}

// Create books a slot.  Checks run in a fixed order so clients get stable
// failure modes: required fields, user account, court existence and
// activity, slot validity, then the conflict-checked insert.  The price is
// always computed server side from the court's current rate.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.CourtID == 0 || req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		return fail(c, http.StatusBadRequest, "court_id, date, start_time and end_time are required")
	}

	ctx := c.Request().Context()

	if _, err := h.Users.GetByID(ctx, userID); err != nil {
		return failRepo(c, err)
	}

	court, err := h.Courts.GetByID(ctx, req.CourtID)
	if err != nil {
		return failRepo(c, err)
	}
	if !court.IsActive {
		return fail(c, http.StatusNotFound, "court not found")
	}

	slot, err := model.ParseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmptySlot):
			return fail(c, http.StatusBadRequest, "end time must be after start time")
		default:
			return fail(c, http.StatusBadRequest, "invalid date or time format")
		}
	}

	b := model.Booking{
		Reference:   uuid.NewString(),
		UserID:      &userID,
		CourtID:     court.ID,
		TotalAmount: slot.Price(court.PricePerHour),
		Notes:       req.Notes,
	}
	if err := h.Bookings.CreateNoOverlap(ctx, &b, slot); err != nil {
		return failRepo(c, err)
	}

	// Best effort: a broker outage never fails the booking.
	if err := h.Publisher.BookingCreated(ctx, queue.BookingCreatedEvent{
		BookingID:   b.ID,
		Reference:   b.Reference,
		UserID:      b.UserID,
		CourtID:     court.ID,
		CourtName:   court.Name,
		Date:        b.Date,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		TotalAmount: b.TotalAmount,
		CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		log.Warn().Err(err).Str("reference", b.Reference).Msg("booking.created publish failed")
	}

	// The response carries the persisted row joined with court and user
	// display fields, not just the bare booking.
	detail, err := h.Bookings.GetDetail(ctx, b.ID)
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusCreated, detail)
}

// List returns the caller's bookings.
func (h *BookingHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	items, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, items)
}

// Get returns one of the caller's bookings; admins may fetch any booking.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}

	ctx := c.Request().Context()
	if getRole(c) == model.RoleAdmin {
		d, err := h.Bookings.GetDetail(ctx, id)
		if err != nil {
			return failRepo(c, err)
		}
		return ok(c, http.StatusOK, d)
	}

	d, err := h.Bookings.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, d)
}

type updateBookingReq struct {
	Status        *model.BookingStatus `json:"status"`
	PaymentStatus *model.PaymentStatus `json:"payment_status"`
	PaymentMethod *string              `json:"payment_method"`
	TotalAmount   *float64             `json:"total_amount"`
	Notes         *string              `json:"notes"`
}

// Update applies a sparse update to a booking.  Owners may only touch
// bookings on their own courts; admins may touch any.
func (h *BookingHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}

	var req updateBookingReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	var actorOwner *uint64
	if getRole(c) == model.RoleOwner {
		actorOwner = &userID
	}

	got, err := h.Bookings.UpdateFields(c.Request().Context(), id, actorOwner, repository.BookingUpdate{
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   req.TotalAmount,
		Notes:         req.Notes,
	})
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, got)
}

// Cancel lets a user cancel their own booking while it is still pending or
// confirmed.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}

	ctx := c.Request().Context()
	if _, err := h.Bookings.GetByIDForUser(ctx, id, userID); err != nil {
		return failRepo(c, err)
	}

	cancelled := model.BookingCancelled
	got, err := h.Bookings.UpdateFields(ctx, id, nil, repository.BookingUpdate{Status: &cancelled})
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, got)
}
