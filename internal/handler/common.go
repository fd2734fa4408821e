// Package handler contains the HTTP handlers.  Handlers bind and validate
// input, call repositories and map sentinel errors to status codes; all
// business rules live below this layer.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/matchpoint/court-booking/internal/middleware"
	"github.com/matchpoint/court-booking/internal/model"
	"github.com/matchpoint/court-booking/internal/repository"
)

// Validator adapts validator/v10 to echo's Validator interface.  Register
// it once on the echo instance in main.
type Validator struct{ v *validator.Validate }

func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i any) error {
	if err := cv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// ok and fail write the response envelope every endpoint uses.
func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}

// getUserID returns the authenticated user's id stored by the JWT
// middleware.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok || id == 0 {
		return 0, errors.New("no authenticated user")
	}
	return id, nil
}

// getRole returns the authenticated user's role, or empty on public routes.
func getRole(c echo.Context) model.Role {
	role, _ := c.Get(middleware.CtxRole).(model.Role)
	return role
}

// pathID parses a numeric :id path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// failRepo maps repository sentinel errors onto status codes.  Anything
// unrecognized is a 500 with a generic message so internals never leak.
func failRepo(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrCourtNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrRegistrationNotFound),
		errors.Is(err, repository.ErrReviewNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, repository.ErrSlotTaken),
		errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, repository.ErrRegistrationActive),
		errors.Is(err, repository.ErrAlreadyDecided),
		errors.Is(err, repository.ErrStillPending),
		errors.Is(err, repository.ErrReviewExists),
		errors.Is(err, repository.ErrBadTransition),
		errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrApplicantIncomplete),
		errors.Is(err, repository.ErrNotReviewable),
		errors.Is(err, repository.ErrNoFields):
		return fail(c, http.StatusBadRequest, err.Error())
	}
	return fail(c, http.StatusInternalServerError, "internal error")
}
