package router

import (
	"github.com/labstack/echo/v4"

	"github.com/festiva/ticketing-api/internal/handler"
	"github.com/festiva/ticketing-api/internal/middleware"
	"github.com/festiva/ticketing-api/internal/model"
)

// RegisterOrganizer registers ORGANIZER-scoped endpoints under
// /v1/organizer.  All routes require a valid JWT and the ORGANIZER or
// ADMIN role; per-resource ownership is enforced in the handlers.
func RegisterOrganizer(e *echo.Echo, ev *handler.OrganizerEventHandler, tk *handler.OrganizerTicketHandler, st *handler.OrganizerStatsHandler, jwtSecret string) {
	g := e.Group(
		"/v1/organizer",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOrganizer, model.RoleAdmin),
	)

	// ---- Events ----
	g.POST("/events", ev.Create)
	g.GET("/events", ev.ListMine)
	g.GET("/events/:id", ev.Get)
	g.PUT("/events/:id", ev.Update)
	g.PATCH("/events/:id", ev.Update) // allow partial-style updates via PATCH as well
	g.DELETE("/events/:id", ev.Delete)

	// ---- Tickets ----
	g.POST("/events/:id/tickets", tk.Create)
	g.GET("/events/:id/tickets", tk.List)
	g.PUT("/tickets/:id", tk.Update)
	g.PATCH("/tickets/:id", tk.Update)
	g.DELETE("/tickets/:id", tk.Delete)

	// ---- Stats ----
	g.GET("/events/:id/stats", st.Stats)
}
