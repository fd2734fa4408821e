package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/matchpoint/court-booking/internal/model"
	"github.com/matchpoint/court-booking/internal/utils"
)

// Context keys set by JWTAuth and read by handlers and RequireRole.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// JWTAuth validates a Bearer access token and stores the authenticated
// user's id (uint64) and role (model.Role) in the request context.  Wrap
// protected route groups with it.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "error": "missing bearer token",
				})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			userID, role, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "error": "invalid token",
				})
			}

			c.Set(CtxUserID, userID)
			c.Set(CtxRole, role)
			return next(c)
		}
	}
}

// RequireRole allows the request through only when the role stored by
// JWTAuth is in the given set; anything else gets 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(model.Role)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false, "error": "forbidden",
				})
			}
			return next(c)
		}
	}
}
