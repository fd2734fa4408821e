package router

import (
	"github.com/labstack/echo/v4"

	"github.com/matchpoint/court-booking/internal/handler"
	"github.com/matchpoint/court-booking/internal/middleware"
	"github.com/matchpoint/court-booking/internal/model"
)

// RegisterAdmin registers the admin-only surface: registration decisions
// and user management.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.GET("/owner-registrations", a.ListRegistrations)
	g.PUT("/owner-registrations/:id", a.Decide)
	g.DELETE("/owner-registrations/:id", a.DeleteRegistration)

	g.GET("/users", a.ListUsers)
	g.PUT("/users/:id/active", a.SetUserActive)
}
