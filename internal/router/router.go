// Package router registers the HTTP surface per audience: public,
// authenticated users, owners and admins.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/matchpoint/court-booking/internal/handler"
)

// RegisterHealth registers the unauthenticated liveness endpoint.
func RegisterHealth(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}
