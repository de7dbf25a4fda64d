package router

import (
	"github.com/labstack/echo/v4"

	"github.com/festiva/ticketing-api/internal/handler"
	"github.com/festiva/ticketing-api/internal/middleware"
	"github.com/festiva/ticketing-api/internal/model"
)

// RegisterAttendee registers the registration workflow endpoints.  Any
// authenticated role may register for events; organizers and admins
// attend events too.
func RegisterAttendee(e *echo.Echo, r *handler.RegistrationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAttendee, model.RoleOrganizer, model.RoleAdmin),
	)

	// Core workflow: idempotent registration with stock decrement and,
	// for paid tickets, payment initiation.
	g.POST("/events/:id/register", r.Register)

	// The caller's registrations with joined event/ticket details.
	g.GET("/registrations", r.ListMine)
	g.GET("/registrations/:id", r.GetMine)
}

// RegisterCheckin registers the gate-scanning endpoint.  Staff roles
// only: attendees present the QR code, organizers and admins redeem it.
func RegisterCheckin(e *echo.Echo, c *handler.CheckinHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOrganizer, model.RoleAdmin),
	)
	g.GET("/checkin/:token", c.Redeem)
}
