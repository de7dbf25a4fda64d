package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/festiva/ticketing-api/internal/config"
	"github.com/festiva/ticketing-api/internal/model"
	"github.com/festiva/ticketing-api/internal/repository"
	"github.com/festiva/ticketing-api/internal/utils"
)

// CheckinHandler redeems check-in tokens at the venue gate.  The route
// sits behind the ORGANIZER/ADMIN role guard: attendees present the QR
// code, staff scan it.
type CheckinHandler struct {
	Cfg           config.Config
	Registrations *repository.RegistrationRepo
}

func NewCheckinHandler(cfg config.Config, regs *repository.RegistrationRepo) *CheckinHandler {
	return &CheckinHandler{Cfg: cfg, Registrations: regs}
}

// Redeem handles GET /checkin/:token.
//
// The token signature proves the URL came from us; the embedded qr_token
// must still match the stored code so a forged or stale payload cannot
// check anyone in.  The flip itself is a conditional UPDATE, so exactly
// one of two concurrent scans wins.
func (h *CheckinHandler) Redeem(c echo.Context) error {
	raw := c.Param("token")
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	claims, err := utils.ParseCheckinToken(h.Cfg.JWTSecret, raw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reg, err := h.Registrations.GetByCode(ctx, claims.RegistrationID, claims.QRToken)
	if err != nil {
		if err == repository.ErrRegistrationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	switch reg.Status {
	case model.RegistrationConfirmed:
	case model.RegistrationPending:
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment not completed"})
	default:
		return c.JSON(http.StatusConflict, echo.Map{"error": "registration cancelled"})
	}

	now := time.Now().UTC()
	if err := h.Registrations.CheckIn(ctx, reg.ID, now); err != nil {
		if err == repository.ErrAlreadyCheckedIn {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already checked in"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
	}

	info, err := h.Registrations.AttendeeInfoByID(ctx, reg.ID)
	if err != nil {
		// Check-in already succeeded; still report it without details.
		return c.JSON(http.StatusOK, echo.Map{
			"checked_in":    true,
			"checked_in_at": now,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"checked_in":    true,
		"checked_in_at": now,
		"attendee":      info,
	})
}
