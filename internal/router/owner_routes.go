package router

import (
	"github.com/labstack/echo/v4"

	"github.com/matchpoint/court-booking/internal/handler"
	"github.com/matchpoint/court-booking/internal/middleware"
	"github.com/matchpoint/court-booking/internal/model"
)

// RegisterOwner registers court management and booking administration for
// approved owners.  Admins pass the role gate too so support staff can act
// on any owner's behalf through the same routes.
func RegisterOwner(e *echo.Echo, co *handler.CourtHandler, b *handler.BookingHandler, rv *handler.ReviewHandler, jwtSecret string) {
	g := e.Group(
		"/v1/owner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner, model.RoleAdmin),
	)

	g.POST("/courts", co.Create)
	g.GET("/courts", co.ListMine)
	g.PUT("/courts/:id", co.Update)
	g.DELETE("/courts/:id", co.Deactivate)
	g.GET("/courts/:id/bookings", co.ListBookings)

	gate := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner, model.RoleAdmin),
	}
	e.PUT("/v1/bookings/:id", b.Update, gate...)
	e.POST("/v1/reviews/:id/reply", rv.Reply, gate...)
}
