// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/attendo/clinic-queue/internal/handler"
	"github.com/attendo/clinic-queue/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Besides the health check, the panel snapshot is public so waiting
// room displays can render without a session.
func RegisterRoutes(e *echo.Echo, d *handler.DispatchHandler) {
	e.GET("/healthz", handler.Health)
	// Panel displays poll this endpoint on boot and whenever the
	// broadcast stream reconnects.
	e.GET("/v1/queues/:id/panel", d.Panel)
}

// RegisterAuth registers authentication routes.  Unauthenticated
// operations live under /v1/auth, while /v1/me requires a session.
// Operator registration is ADMIN-only and lives with the admin routes.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh token in the body and does not require
	// JWT middleware; with a valid access token and no body it revokes
	// every session of that operator instead.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}
