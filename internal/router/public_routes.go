package router

import (
	"github.com/labstack/echo/v4"

	"github.com/matchpoint/court-booking/internal/handler"
)

// RegisterPublic registers unauthenticated browse and registration
// endpoints.  cache may be nil-safe passthrough when Redis is absent.
func RegisterPublic(e *echo.Echo, courts *handler.CourtHandler, regs *handler.RegistrationHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	g.GET("/courts", courts.Search)
	g.GET("/courts/:id", courts.GetPublic)
	g.GET("/courts/:id/reviews", courts.ListReviews)

	// Registration endpoints are never cached; submissions mutate state
	// and status checks must be fresh.
	e.POST("/v1/owner/register", regs.Submit)
	e.GET("/v1/owner/register", regs.Status)
}
