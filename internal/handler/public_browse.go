package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/festiva/ticketing-api/internal/repository"
)

// PublicBrowseHandler serves the unauthenticated catalogue: approved
// events and their ticket types.  The router fronts these endpoints
// with the Redis response cache and rate limiter.
type PublicBrowseHandler struct {
	Events  *repository.EventRepo
	Tickets *repository.TicketRepo
}

func NewPublicBrowseHandler(events *repository.EventRepo, tickets *repository.TicketRepo) *PublicBrowseHandler {
	return &PublicBrowseHandler{Events: events, Tickets: tickets}
}

// ListEvents handles GET /events with an optional ?category= filter.
func (h *PublicBrowseHandler) ListEvents(c echo.Context) error {
	category := strings.ToUpper(strings.TrimSpace(c.QueryParam("category")))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.ListApproved(ctx, category)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// GetEvent handles GET /events/:id, returning the event together with
// its ticket types.  Unapproved events are invisible here.
func (h *PublicBrowseHandler) GetEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ev.IsApproved {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}

	tickets, err := h.Tickets.ListByEvent(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"event": ev, "tickets": tickets})
}
