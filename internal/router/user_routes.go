package router

import (
	"github.com/labstack/echo/v4"

	"github.com/matchpoint/court-booking/internal/handler"
	"github.com/matchpoint/court-booking/internal/middleware"
	"github.com/matchpoint/court-booking/internal/model"
)

// RegisterAuth registers the token endpoints plus the authenticated /me
// route.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterUser registers booking and review endpoints for any
// authenticated account.  Owners and admins book courts like anyone else.
func RegisterUser(e *echo.Echo, b *handler.BookingHandler, rv *handler.ReviewHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleOwner, model.RoleAdmin),
	)

	g.POST("/bookings", b.Create)
	g.GET("/bookings", b.List)
	g.GET("/bookings/:id", b.Get)
	g.POST("/bookings/:id/cancel", b.Cancel)

	g.POST("/reviews", rv.Create)
}
