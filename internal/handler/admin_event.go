package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/festiva/ticketing-api/internal/repository"
)

// AdminEventHandler exposes the moderation surface: listing events that
// await approval and flipping their approval flag.
type AdminEventHandler struct {
	Events *repository.EventRepo
}

func NewAdminEventHandler(events *repository.EventRepo) *AdminEventHandler {
	return &AdminEventHandler{Events: events}
}

// ListPending handles GET /admin/events/pending.
func (h *AdminEventHandler) ListPending(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.ListPendingApproval(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Approve handles PATCH /admin/events/:id/approve.
func (h *AdminEventHandler) Approve(c echo.Context) error {
	return h.setApproved(c, true)
}

// Reject handles PATCH /admin/events/:id/reject.  Rejection just clears
// the approval flag; the organizer can edit and wait for another pass.
func (h *AdminEventHandler) Reject(c echo.Context) error {
	return h.setApproved(c, false)
}

func (h *AdminEventHandler) setApproved(c echo.Context, approved bool) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Events.SetApproved(ctx, id, approved); err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "is_approved": approved})
}
