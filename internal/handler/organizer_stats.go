package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/festiva/ticketing-api/internal/model"
	"github.com/festiva/ticketing-api/internal/repository"
)

// OrganizerStatsHandler aggregates per-event registration and revenue
// numbers for the event's organizer.
type OrganizerStatsHandler struct {
	Events        *repository.EventRepo
	Registrations *repository.RegistrationRepo
	Payments      *repository.PaymentRepo
}

func NewOrganizerStatsHandler(events *repository.EventRepo, regs *repository.RegistrationRepo, pays *repository.PaymentRepo) *OrganizerStatsHandler {
	return &OrganizerStatsHandler{Events: events, Registrations: regs, Payments: pays}
}

// Stats handles GET /organizer/events/:id/stats.  Admins may read any
// event's stats; organizers only their own.
func (h *OrganizerStatsHandler) Stats(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if ev.OrganizerID != uid && getRole(c) != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your event"})
	}

	stats, err := h.Registrations.StatsByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	revenue, err := h.Payments.RevenueByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	perDay, err := h.Registrations.RegistrationsPerDay(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"event_id": eventID,
		"stats":    stats,
		"revenue":  revenue,
		"per_day":  perDay,
	})
}
