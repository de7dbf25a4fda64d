package router

import (
	"github.com/labstack/echo/v4"

	"github.com/festiva/ticketing-api/internal/handler"
	"github.com/festiva/ticketing-api/internal/middleware"
	"github.com/festiva/ticketing-api/internal/model"
)

// RegisterAdmin registers ADMIN-only moderation endpoints under
// /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminEventHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.GET("/events/pending", a.ListPending)
	g.PATCH("/events/:id/approve", a.Approve)
	g.PATCH("/events/:id/reject", a.Reject)
}
