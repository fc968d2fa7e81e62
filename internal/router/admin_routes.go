package router

import (
	"github.com/labstack/echo/v4"

	"github.com/attendo/clinic-queue/internal/handler"
	"github.com/attendo/clinic-queue/internal/middleware"
	"github.com/attendo/clinic-queue/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1: queue
// management and operator registration.
func RegisterAdmin(e *echo.Echo, q *handler.QueueAdminHandler, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Queues ----
	g.POST("/queues", q.Create)
	g.GET("/sectors/:id/queues", q.ListBySector)
	g.DELETE("/queues/:id", q.Deactivate)

	// ---- Operators ----
	g.POST("/operators", a.Register)
}
