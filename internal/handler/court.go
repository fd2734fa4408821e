package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/matchpoint/court-booking/internal/model"
	"github.com/matchpoint/court-booking/internal/repository"
)

// CourtHandler serves owner court management and the public browse API.
type CourtHandler struct {
	Courts   *repository.CourtRepo
	Bookings *repository.BookingRepo
	Reviews  *repository.ReviewRepo
}

func NewCourtHandler(co *repository.CourtRepo, b *repository.BookingRepo, rv *repository.ReviewRepo) *CourtHandler {
	return &CourtHandler{Courts: co, Bookings: b, Reviews: rv}
}

type courtReq struct {
	Name         string  `json:"name" validate:"required,min=2,max=160"`
	Sport        string  `json:"sport" validate:"required,min=2,max=60"`
	Description  *string `json:"description"`
	PricePerHour float64 `json:"price_per_hour" validate:"required,gt=0"`
	OpenHour     string  `json:"open_hour" validate:"required"`
	CloseHour    string  `json:"close_hour" validate:"required"`
	IsActive     *bool   `json:"is_active"`
}

// Create adds a court under the calling owner.
func (h *CourtHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	var req courtReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "name, sport, positive price_per_hour and open/close hours are required")
	}

	court := model.Court{
		OwnerID:      ownerID,
		Name:         req.Name,
		Sport:        req.Sport,
		Description:  req.Description,
		PricePerHour: req.PricePerHour,
		OpenHour:     req.OpenHour,
		CloseHour:    req.CloseHour,
	}
	if err := h.Courts.Create(c.Request().Context(), &court); err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusCreated, court)
}

// ListMine returns the calling owner's courts.
func (h *CourtHandler) ListMine(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	items, err := h.Courts.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, items)
}

// Update replaces a court's mutable fields, ownership enforced.
func (h *CourtHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid court id")
	}

	var req courtReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "name, sport, positive price_per_hour and open/close hours are required")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	court := model.Court{
		ID:           id,
		OwnerID:      ownerID,
		Name:         req.Name,
		Sport:        req.Sport,
		Description:  req.Description,
		PricePerHour: req.PricePerHour,
		OpenHour:     req.OpenHour,
		CloseHour:    req.CloseHour,
		IsActive:     active,
	}
	if err := h.Courts.UpdateByIDAndOwner(c.Request().Context(), &court); err != nil {
		return failRepo(c, err)
	}

	got, err := h.Courts.GetByID(c.Request().Context(), id)
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, got)
}

// Deactivate soft-deletes a court.  History stays; the court just stops
// being bookable and listed.
func (h *CourtHandler) Deactivate(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid court id")
	}
	if err := h.Courts.DeactivateByIDAndOwner(c.Request().Context(), id, ownerID); err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"deactivated": true})
}

// ListBookings returns every booking on one of the owner's courts.
func (h *CourtHandler) ListBookings(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid court id")
	}
	items, err := h.Bookings.ListByCourtForOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, items)
}

// Search is the public browse endpoint with sport/text filters and
// pagination.
func (h *CourtHandler) Search(c echo.Context) error {
	q := repository.CourtSearchQuery{
		Sport:    c.QueryParam("sport"),
		Text:     c.QueryParam("q"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}

	items, total, err := h.Courts.Search(c.Request().Context(), q)
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{
		"courts":    items,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

// GetPublic returns a single active court with its rating aggregate.
func (h *CourtHandler) GetPublic(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid court id")
	}

	ctx := c.Request().Context()
	court, err := h.Courts.GetByID(ctx, id)
	if err != nil {
		return failRepo(c, err)
	}
	if !court.IsActive {
		return fail(c, http.StatusNotFound, "court not found")
	}

	avg, count, err := h.Reviews.AverageForCourt(ctx, id)
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{
		"court":        court,
		"avg_rating":   avg,
		"review_count": count,
	})
}

// ListReviews returns a court's reviews for public display.
func (h *CourtHandler) ListReviews(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid court id")
	}
	items, err := h.Reviews.ListByCourt(c.Request().Context(), id)
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, items)
}

func queryInt(c echo.Context, name string, def int) int {
	if v := c.QueryParam(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
