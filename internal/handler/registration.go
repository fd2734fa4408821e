package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/matchpoint/court-booking/internal/config"
	"github.com/matchpoint/court-booking/internal/model"
	"github.com/matchpoint/court-booking/internal/repository"
	"github.com/matchpoint/court-booking/internal/utils"
)

// RegistrationHandler serves the public side of the owner registration
// workflow: submitting an application and checking its status.
type RegistrationHandler struct {
	Cfg           config.Config
	Registrations *repository.RegistrationRepo
	Users         *repository.UserRepo
}

func NewRegistrationHandler(cfg config.Config, regs *repository.RegistrationRepo, users *repository.UserRepo) *RegistrationHandler {
	return &RegistrationHandler{Cfg: cfg, Registrations: regs, Users: users}
}

type submitRegistrationReq struct {
	Name                string  `json:"name" validate:"required_without=UserToken,omitempty,min=2,max=120"`
	Email               string  `json:"email" validate:"required_without=UserToken,omitempty,email"`
	Password            string  `json:"password" validate:"required_without=UserToken,omitempty,min=6"`
	Phone               *string `json:"phone" validate:"omitempty,max=32"`
	BusinessName        string  `json:"business_name" validate:"required,min=2,max=160"`
	BusinessAddress     *string `json:"business_address"`
	BusinessPhone       *string `json:"business_phone" validate:"omitempty,max=32"`
	BusinessEmail       *string `json:"business_email" validate:"omitempty,email"`
	BusinessDescription *string `json:"business_description"`
	ExperienceYears     *int    `json:"experience_years" validate:"omitempty,gte=0,lte=80"`

	// UserToken is never bound from JSON; it exists so the
	// required_without rules can relax identity fields for logged-in
	// applicants.
	UserToken string `json:"-"`
}

// Submit files an owner registration.  A logged-in user (valid bearer
// token) applies against their existing account; an anonymous applicant
// must supply name, email and password, which become the owner account if
// the application is approved.  The password is bcrypt-hashed before it
// touches the database.
func (h *RegistrationHandler) Submit(c echo.Context) error {
	var req submitRegistrationReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	// Optional authentication: this route is public, so the token is
	// parsed here instead of by middleware.
	var legacyUserID *uint64
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if uid, _, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			legacyUserID = &uid
			req.UserToken = "present"
		}
	}

	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "business_name plus applicant name, email and password (min 6) are required")
	}

	ctx := c.Request().Context()
	reg := model.OwnerRegistration{
		UserID:              legacyUserID,
		BusinessName:        strings.TrimSpace(req.BusinessName),
		BusinessAddress:     req.BusinessAddress,
		BusinessPhone:       req.BusinessPhone,
		BusinessEmail:       req.BusinessEmail,
		BusinessDescription: req.BusinessDescription,
		ExperienceYears:     req.ExperienceYears,
	}

	if legacyUserID != nil {
		u, err := h.Users.GetByID(ctx, *legacyUserID)
		if err != nil {
			return failRepo(c, err)
		}
		if u.Role != model.RoleUser {
			return fail(c, http.StatusConflict, "account already holds an elevated role")
		}
		email := u.Email
		reg.UserEmail = &email
	} else {
		name := strings.TrimSpace(req.Name)
		email := strings.ToLower(strings.TrimSpace(req.Email))
		hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "internal error")
		}
		reg.UserName = &name
		reg.UserEmail = &email
		reg.UserPassword = &hash
		reg.UserPhone = req.Phone
	}

	if err := h.Registrations.Create(ctx, &reg); err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusCreated, registrationView(reg))
}

// Status lets an applicant check their most recent registration by email.
func (h *RegistrationHandler) Status(c echo.Context) error {
	email := strings.TrimSpace(c.QueryParam("email"))
	if email == "" {
		return fail(c, http.StatusBadRequest, "email query parameter is required")
	}
	reg, err := h.Registrations.GetLatestByEmail(c.Request().Context(), email)
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{
		"id":            reg.ID,
		"business_name": reg.BusinessName,
		"status":        reg.Status,
		"submitted_at":  reg.CreatedAt,
		"reviewed_at":   reg.ReviewedAt,
	})
}

// registrationView strips the password hash from API responses.
func registrationView(reg model.OwnerRegistration) echo.Map {
	applicant := model.ResolveApplicant(&reg, nil)
	return echo.Map{
		"id":                   reg.ID,
		"applicant":            applicant,
		"user_id":              reg.UserID,
		"business_name":        reg.BusinessName,
		"business_address":     reg.BusinessAddress,
		"business_phone":       reg.BusinessPhone,
		"business_email":       reg.BusinessEmail,
		"business_description": reg.BusinessDescription,
		"experience_years":     reg.ExperienceYears,
		"status":               reg.Status,
		"admin_notes":          reg.AdminNotes,
		"reviewed_by":          reg.ReviewedBy,
		"reviewed_at":          reg.ReviewedAt,
		"created_user_id":      reg.CreatedUserID,
		"created_at":           reg.CreatedAt,
	}
}
