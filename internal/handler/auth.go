package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/matchpoint/court-booking/internal/config"
	"github.com/matchpoint/court-booking/internal/model"
	"github.com/matchpoint/court-booking/internal/repository"
	"github.com/matchpoint/court-booking/internal/utils"
)

// AuthHandler serves registration, login and token lifecycle endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, tokens *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens}
}

type registerReq struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID    uint64     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Register creates a regular user account.  The owner role is never
// self-assigned here; it is only granted through the registration approval
// workflow.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "name, valid email and password (min 6) are required")
	}

	ctx := c.Request().Context()
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	uid, err := h.Users.Create(ctx, strings.TrimSpace(req.Name), req.Email, hash, req.Phone, model.RoleUser)
	if err != nil {
		return failRepo(c, err)
	}

	return h.issueTokens(c, http.StatusCreated, uid)
}

// Login verifies credentials and issues a token pair.  Deactivated
// accounts are rejected with the same message as a bad password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "email and password are required")
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil || !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}

	return h.issueTokens(c, http.StatusOK, u.ID)
}

// Refresh rotates a refresh token: the presented token is revoked and a
// fresh pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return fail(c, http.StatusBadRequest, "refresh_token is required")
	}

	ctx := c.Request().Context()
	hash := utils.HashRefreshRaw(req.RefreshToken)

	uid, err := h.Tokens.Validate(ctx, hash)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}

	// A deactivated account must not keep rotating tokens after the admin
	// pulled the plug.
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil || !u.IsActive {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}

	if err := h.Tokens.Revoke(ctx, hash); err != nil {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}

	return h.issueTokens(c, http.StatusOK, uid)
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return fail(c, http.StatusBadRequest, "refresh_token is required")
	}
	if err := h.Tokens.Revoke(c.Request().Context(), utils.HashRefreshRaw(req.RefreshToken)); err != nil {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}
	return ok(c, http.StatusOK, echo.Map{"logged_out": true})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	u, err := h.Users.GetByID(c.Request().Context(), uid)
	if err != nil {
		return failRepo(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{
		"id":              u.ID,
		"name":            u.Name,
		"email":           u.Email,
		"phone":           u.Phone,
		"role":            u.Role,
		"approval_status": u.ApprovalStatus,
		"created_at":      u.CreatedAt,
	})
}

func (h *AuthHandler) issueTokens(c echo.Context, status int, userID uint64) error {
	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return failRepo(c, err)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	if err := h.Tokens.Store(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	return ok(c, status, authResp{
		User:    userPart{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}
