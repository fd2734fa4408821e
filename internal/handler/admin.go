package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/matchpoint/court-booking/internal/model"
	"github.com/matchpoint/court-booking/internal/queue"
	"github.com/matchpoint/court-booking/internal/repository"
	"github.com/matchpoint/court-booking/internal/service"
)

// AdminHandler serves registration decisions and user management.
type AdminHandler struct {
	Registrations *repository.RegistrationRepo
	Users         *repository.UserRepo
	Tokens        *repository.TokenRepo
	Publisher     *service.EventPublisher
}

func NewAdminHandler(regs *repository.RegistrationRepo, users *repository.UserRepo, tokens *repository.TokenRepo, pub *service.EventPublisher) *AdminHandler {
	return &AdminHandler{Registrations: regs, Users: users, Tokens: tokens, Publisher: pub}
}

// ListRegistrations returns registrations, optionally filtered by
// ?status=pending|approved|rejected.
func (h *AdminHandler) ListRegistrations(c echo.Context) error {
	status := model.RegistrationStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return fail(c, http.StatusBadRequest, "invalid status filter")
	}

	rows, err := h.Registrations.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return failRepo(c, err)
	}

	out := make([]echo.Map, 0, len(rows))
	for _, row := range rows {
		view := registrationView(row.OwnerRegistration)
		view["applicant"] = row.Applicant
		out = append(out, view)
	}
	return ok(c, http.StatusOK, out)
}

type decideReq struct {
	Action string  `json:"action" validate:"required,oneof=approve reject"`
	Notes  *string `json:"notes"`
}

// Decide approves or rejects a pending registration.
func (h *AdminHandler) Decide(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid registration id")
	}

	var req decideReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "action must be approve or reject")
	}

	ctx := c.Request().Context()
	var reg model.OwnerRegistration
	if req.Action == "approve" {
		reg, err = h.Registrations.Approve(ctx, id, adminID, req.Notes)
	} else {
		reg, err = h.Registrations.Reject(ctx, id, adminID, req.Notes)
	}
	if err != nil {
		return failRepo(c, err)
	}

	email := ""
	if reg.UserEmail != nil {
		email = *reg.UserEmail
	}
	if err := h.Publisher.RegistrationDecided(ctx, queue.RegistrationDecidedEvent{
		RegistrationID: reg.ID,
		BusinessName:   reg.BusinessName,
		ApplicantEmail: email,
		Decision:       string(reg.Status),
		AdminID:        adminID,
		CreatedUserID:  reg.CreatedUserID,
		DecidedAt:      time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		log.Warn().Err(err).Uint64("registration_id", reg.ID).Msg("registration.decided publish failed")
	}

	return ok(c, http.StatusOK, registrationView(reg))
}

// DeleteRegistration removes a decided registration.
func (h *AdminHandler) DeleteRegistration(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid registration id")
	}
	if err := h.Registrations.Delete(c.Request().Context(), id); err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"deleted": true})
}

// ListUsers pages through user accounts.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	limit := queryInt(c, "page_size", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}

	users, err := h.Users.List(c.Request().Context(), limit, (page-1)*limit)
	if err != nil {
		return failRepo(c, err)
	}

	out := make([]echo.Map, 0, len(users))
	for _, u := range users {
		out = append(out, echo.Map{
			"id":              u.ID,
			"name":            u.Name,
			"email":           u.Email,
			"role":            u.Role,
			"approval_status": u.ApprovalStatus,
			"is_active":       u.IsActive,
			"created_at":      u.CreatedAt,
		})
	}
	return ok(c, http.StatusOK, out)
}

type setActiveReq struct {
	Active *bool `json:"active" validate:"required"`
}

// SetUserActive toggles an account.  Deactivation blocks future logins and
// revokes every live refresh token; existing access tokens expire on their
// own TTL.
func (h *AdminHandler) SetUserActive(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	if id == adminID {
		return fail(c, http.StatusConflict, "cannot change your own active flag")
	}

	var req setActiveReq
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return fail(c, http.StatusBadRequest, "active is required")
	}
	ctx := c.Request().Context()
	if err := h.Users.SetActive(ctx, id, *req.Active); err != nil {
		return failRepo(c, err)
	}
	if !*req.Active {
		if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
			return fail(c, http.StatusInternalServerError, "internal error")
		}
	}
	return ok(c, http.StatusOK, echo.Map{"id": id, "active": *req.Active})
}
