package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/festiva/ticketing-api/internal/model"
	"github.com/festiva/ticketing-api/internal/payment"
	"github.com/festiva/ticketing-api/internal/repository"
)

// SignatureVerifier validates webhook notification signatures.
type SignatureVerifier interface {
	ValidSignature(n payment.Notification) bool
}

// PaymentCallbackHandler processes asynchronous payment notifications
// from the gateway.  The gateway retries until it receives 200, so the
// handler is idempotent: replayed notifications for an already-settled
// payment are acknowledged without side effects.
type PaymentCallbackHandler struct {
	Verifier      SignatureVerifier
	Users         *repository.UserRepo
	Events        *repository.EventRepo
	Tickets       *repository.TicketRepo
	Registrations *repository.RegistrationRepo
	Payments      *repository.PaymentRepo
}

func NewPaymentCallbackHandler(v SignatureVerifier, users *repository.UserRepo, events *repository.EventRepo, tickets *repository.TicketRepo, regs *repository.RegistrationRepo, pays *repository.PaymentRepo) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{Verifier: v, Users: users, Events: events, Tickets: tickets, Registrations: regs, Payments: pays}
}

// Notification handles POST /payments/notification.
func (h *PaymentCallbackHandler) Notification(c echo.Context) error {
	var n payment.Notification
	if err := c.Bind(&n); err != nil || n.OrderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification"})
	}
	if !h.Verifier.ValidSignature(n) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid signature"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	pay, err := h.Payments.GetByID(ctx, n.OrderID)
	if err != nil {
		if err == repository.ErrPaymentNotFound {
			// Acknowledge so the gateway stops retrying an order we will
			// never recognise.
			log.Printf("payment-callback: notification for unknown order %s (status %s)", n.OrderID, n.TransactionStatus)
			return c.JSON(http.StatusOK, echo.Map{"status": "ignored"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	switch payment.MapStatus(n.TransactionStatus, n.FraudStatus) {
	case model.PaymentSuccess:
		transitioned, err := h.settle(ctx, pay, n)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settle failed"})
		}
		if transitioned {
			h.announceConfirmed(ctx, pay)
		}
	case model.PaymentFailed:
		if _, err := h.fail(ctx, pay, n); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
		}
	default:
		// pending / authorize / challenge: nothing to do yet
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// settle marks the payment SUCCESS and the registration CONFIRMED in one
// transaction.  Returns false when the payment already left PENDING, so
// a replayed notification changes nothing.
func (h *PaymentCallbackHandler) settle(ctx context.Context, pay model.Payment, n payment.Notification) (bool, error) {
	tx, err := h.Payments.DB().BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	transitioned, err := h.Payments.MarkSuccessTx(ctx, tx, pay.ID, n.PaymentType, n.TransactionID, payment.SettledAt(n))
	if err != nil {
		return false, err
	}
	if transitioned {
		if err := h.Registrations.UpdateStatusTx(ctx, tx, pay.RegistrationID, model.RegistrationConfirmed); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return transitioned, nil
}

// fail marks the payment FAILED, cancels the registration and restores
// the reserved ticket stock, all in one transaction.
func (h *PaymentCallbackHandler) fail(ctx context.Context, pay model.Payment, n payment.Notification) (bool, error) {
	tx, err := h.Payments.DB().BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	transitioned, err := h.Payments.MarkFailedTx(ctx, tx, pay.ID, n.PaymentType, n.TransactionID)
	if err != nil {
		return false, err
	}
	if transitioned {
		reg, err := h.Registrations.GetByIDTx(ctx, tx, pay.RegistrationID)
		if err != nil {
			return false, err
		}
		if err := h.Registrations.UpdateStatusTx(ctx, tx, reg.ID, model.RegistrationCancelled); err != nil {
			return false, err
		}
		if err := h.Tickets.RestoreStockTx(ctx, tx, reg.TicketID); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return transitioned, nil
}

// announceConfirmed publishes the registration.confirmed message after a
// successful settlement.  Loading the joined details is best-effort: a
// read failure here only loses the notification, never the settlement.
func (h *PaymentCallbackHandler) announceConfirmed(ctx context.Context, pay model.Payment) {
	reg, err := h.Registrations.GetByID(ctx, pay.RegistrationID)
	if err != nil {
		log.Printf("payment-callback: load registration %d failed: %v", pay.RegistrationID, err)
		return
	}
	user, err := h.Users.GetByID(ctx, reg.UserID)
	if err != nil {
		log.Printf("payment-callback: load user %d failed: %v", reg.UserID, err)
		return
	}
	event, err := h.Events.GetByID(ctx, reg.EventID)
	if err != nil {
		log.Printf("payment-callback: load event %d failed: %v", reg.EventID, err)
	}
	ticket, err := h.Tickets.GetByID(ctx, reg.TicketID)
	if err != nil {
		log.Printf("payment-callback: load ticket %d failed: %v", reg.TicketID, err)
	}
	publishConfirmed(reg, user, event, ticket, pay.ID)
}
