package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/matchpoint/court-booking/internal/repository"
)

// ReviewHandler serves review creation and owner replies.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
}

func NewReviewHandler(rv *repository.ReviewRepo) *ReviewHandler {
	return &ReviewHandler{Reviews: rv}
}

type createReviewReq struct {
	BookingID uint64  `json:"booking_id" validate:"required"`
	Rating    int     `json:"rating" validate:"required,min=1,max=5"`
	Comment   *string `json:"comment"`
}

// Create posts a review for one of the caller's completed bookings.
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "booking_id and rating between 1 and 5 are required")
	}

	rv, err := h.Reviews.Create(c.Request().Context(), userID, req.BookingID, req.Rating, req.Comment)
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusCreated, rv)
}

type replyReq struct {
	Reply string `json:"reply" validate:"required,min=1,max=2000"`
}

// Reply stores the owner's response on a review of one of their courts.
func (h *ReviewHandler) Reply(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid review id")
	}

	var req replyReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Reply) == "" {
		return fail(c, http.StatusBadRequest, "reply is required")
	}

	rv, err := h.Reviews.Reply(c.Request().Context(), id, ownerID, strings.TrimSpace(req.Reply))
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, rv)
}
