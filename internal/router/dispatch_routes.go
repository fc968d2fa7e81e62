package router

import (
	"github.com/labstack/echo/v4"

	"github.com/attendo/clinic-queue/internal/handler"
	"github.com/attendo/clinic-queue/internal/middleware"
	"github.com/attendo/clinic-queue/internal/model"
)

// RegisterDispatch registers the reception and calling endpoints under
// /v1.  All routes require a valid JWT with an OPERATOR or ADMIN role;
// rateLimit shields the write paths from button-mashing clients and is
// a pass-through middleware when rate limiting is disabled.
func RegisterDispatch(e *echo.Echo, d *handler.DispatchHandler, c *handler.CustomerHandler,
	jwtSecret string, rateLimit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOperator, model.RoleAdmin),
	)

	// ---- Customers ----
	g.POST("/customers", c.Create, rateLimit)
	g.GET("/customers/:id", c.Get)

	// ---- Tickets ----
	g.POST("/tickets", d.Admit, rateLimit)
	g.POST("/tickets/:id/finalize", d.Finalize, rateLimit)
	g.POST("/tickets/:id/cancel", d.Cancel, rateLimit)
	g.POST("/tickets/:id/forward", d.Forward, rateLimit)

	// ---- Queues ----
	g.POST("/queues/:id/call-next", d.CallNext, rateLimit)
	g.GET("/queues/:id/tickets", d.WaitingList)
}
