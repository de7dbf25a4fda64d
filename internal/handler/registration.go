package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/festiva/ticketing-api/internal/config"
	"github.com/festiva/ticketing-api/internal/model"
	"github.com/festiva/ticketing-api/internal/payment"
	"github.com/festiva/ticketing-api/internal/queue"
	"github.com/festiva/ticketing-api/internal/repository"
	queue_publisher "github.com/festiva/ticketing-api/internal/service"
	"github.com/festiva/ticketing-api/internal/utils"
)

// PaymentGateway abstracts the payment provider so handlers can be
// tested without talking to the real Snap API.
type PaymentGateway interface {
	CreateTransaction(orderID string, amount int64, itemName string, payer payment.Payer) (*payment.Charge, error)
}

// RegistrationHandler owns the registration workflow: registering for an
// event (with stock decrement and payment initiation) and listing the
// caller's registrations.
type RegistrationHandler struct {
	Cfg           config.Config
	Users         *repository.UserRepo
	Events        *repository.EventRepo
	Tickets       *repository.TicketRepo
	Registrations *repository.RegistrationRepo
	Payments      *repository.PaymentRepo
	Gateway       PaymentGateway
}

func NewRegistrationHandler(cfg config.Config, users *repository.UserRepo, events *repository.EventRepo, tickets *repository.TicketRepo, regs *repository.RegistrationRepo, pays *repository.PaymentRepo, gw PaymentGateway) *RegistrationHandler {
	return &RegistrationHandler{Cfg: cfg, Users: users, Events: events, Tickets: tickets, Registrations: regs, Payments: pays, Gateway: gw}
}

type registerEventReq struct {
	TicketID uint64 `json:"ticket_id"`
}

type registrationResp struct {
	ID          uint64     `json:"id"`
	EventID     uint64     `json:"event_id"`
	TicketID    uint64     `json:"ticket_id"`
	Status      string     `json:"status"`
	QRCode      string     `json:"qr_code"`
	CheckinURL  string     `json:"checkin_url"`
	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type paymentResp struct {
	ID          string  `json:"id"`
	Amount      int64   `json:"amount"`
	Status      string  `json:"status"`
	Token       *string `json:"token,omitempty"`
	RedirectURL *string `json:"redirect_url,omitempty"`
}

func toRegistrationResp(reg model.Registration) registrationResp {
	return registrationResp{
		ID:          reg.ID,
		EventID:     reg.EventID,
		TicketID:    reg.TicketID,
		Status:      reg.Status,
		QRCode:      reg.QRCode,
		CheckinURL:  reg.CheckinURL,
		CheckedIn:   reg.CheckedIn,
		CheckedInAt: reg.CheckedInAt,
		CreatedAt:   reg.CreatedAt,
	}
}

// Register handles POST /events/:id/register.
//
// Free tickets are confirmed immediately.  Paid tickets create a
// PENDING registration plus a PENDING payment row inside one database
// transaction, then call the payment gateway after commit; if the
// gateway call fails the pending rows stay in place so the client can
// retry payment or the webhook can reconcile later.
//
// Duplicate protection is two-layered: a fast existence check up front
// and a UNIQUE(user_id,event_id) constraint inside the transaction, so
// two racing requests cannot both register.
func (h *RegistrationHandler) Register(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req registerEventReq
	if err := c.Bind(&req); err != nil || req.TicketID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	// Fast path: reject duplicates before opening a transaction.  The
	// unique constraint still guards the race window.
	exists, err := h.Registrations.ExistsByUserAndEvent(ctx, uid, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if exists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "already registered for this event"})
	}

	tx, err := h.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	user, err := h.Users.GetByIDTx(ctx, tx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	event, err := h.Events.GetByIDTx(ctx, tx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
	}
	if !event.IsApproved {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	if time.Now().UTC().After(event.EndsAt) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "event has ended"})
	}

	ticket, err := h.Tickets.GetByIDTx(ctx, tx, req.TicketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load ticket failed"})
	}
	if ticket.EventID != eventID {
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket does not belong to this event"})
	}

	// Atomic stock decrement: affects zero rows when quantity is 0.
	if err := h.Tickets.DecrementStockTx(ctx, tx, ticket.ID); err != nil {
		if err == repository.ErrSoldOut {
			return c.JSON(http.StatusConflict, echo.Map{"error": "ticket sold out"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve stock failed"})
	}

	paid := event.IsPaid && ticket.Price > 0
	status := model.RegistrationConfirmed
	if paid {
		status = model.RegistrationPending
	}

	code, err := utils.NewCheckinCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate code failed"})
	}

	reg := model.Registration{
		UserID:   uid,
		EventID:  eventID,
		TicketID: ticket.ID,
		Status:   status,
		QRCode:   code,
	}
	if err := h.Registrations.CreateTx(ctx, tx, &reg); err != nil {
		if err == repository.ErrAlreadyRegistered {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already registered for this event"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create registration failed"})
	}

	// The check-in URL embeds the registration id, so it can only be
	// built after the insert assigns one.
	checkinTok, err := utils.NewCheckinToken(h.Cfg.JWTSecret, reg.ID, code, h.Cfg.CheckinTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sign checkin token failed"})
	}
	reg.CheckinURL = fmt.Sprintf("%s/v1/checkin/%s", h.Cfg.BaseURL, checkinTok)
	if err := h.Registrations.SetCheckinURLTx(ctx, tx, reg.ID, reg.CheckinURL); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save checkin url failed"})
	}

	var pay model.Payment
	if paid {
		pay = model.Payment{
			ID:             uuid.NewString(), // doubles as the gateway order_id
			RegistrationID: reg.ID,
			Amount:         ticket.Price,
			Status:         model.PaymentPending,
		}
		if err := h.Payments.CreateTx(ctx, tx, &pay); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create payment failed"})
		}
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	if !paid {
		publishConfirmed(reg, user, event, ticket, "")
		return c.JSON(http.StatusCreated, echo.Map{
			"registration": toRegistrationResp(reg),
		})
	}

	// Gateway call happens after commit: a provider outage must not roll
	// back the reserved stock.  On failure the registration and payment
	// stay PENDING for reconciliation.
	itemName := fmt.Sprintf("%s - %s", event.Title, ticket.Name)
	charge, err := h.Gateway.CreateTransaction(pay.ID, pay.Amount, itemName, payment.Payer{Name: user.FullName, Email: user.Email})
	if err != nil {
		log.Printf("registration: gateway charge failed for payment %s: %v", pay.ID, err)
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":        "payment gateway unavailable, registration is pending",
			"registration": toRegistrationResp(reg),
			"payment":      paymentResp{ID: pay.ID, Amount: pay.Amount, Status: pay.Status},
		})
	}
	if err := h.Payments.AttachGatewayRef(ctx, pay.ID, charge.Token, charge.RedirectURL); err != nil {
		log.Printf("registration: attach gateway ref failed for payment %s: %v", pay.ID, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"registration": toRegistrationResp(reg),
		"payment": paymentResp{
			ID:          pay.ID,
			Amount:      pay.Amount,
			Status:      pay.Status,
			Token:       &charge.Token,
			RedirectURL: &charge.RedirectURL,
		},
	})
}

// ListMine handles GET /registrations and returns the caller's
// registrations joined with event and ticket details.
func (h *RegistrationHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Registrations.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"registrations": items})
}

// GetMine handles GET /registrations/:id.  Only the owner can see a
// registration; others get 404 rather than 403 to avoid leaking ids.
func (h *RegistrationHandler) GetMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reg, err := h.Registrations.GetByIDForUser(ctx, id, uid)
	if err != nil {
		if err == repository.ErrRegistrationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	resp := echo.Map{"registration": toRegistrationResp(reg)}
	if pay, err := h.Payments.GetByRegistrationID(ctx, reg.ID); err == nil {
		resp["payment"] = paymentResp{
			ID:          pay.ID,
			Amount:      pay.Amount,
			Status:      pay.Status,
			Token:       pay.GatewayToken,
			RedirectURL: pay.RedirectURL,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// publishConfirmed fires the registration.confirmed queue message in the
// background.  Publishing is best-effort: the registration is already
// committed and must not fail because the broker is down.
func publishConfirmed(reg model.Registration, user model.User, event model.Event, ticket model.Ticket, paymentID string) {
	ev := queue.RegistrationConfirmedEvent{
		RegistrationID: reg.ID,
		UserID:         user.ID,
		UserEmail:      user.Email,
		EventID:        event.ID,
		EventTitle:     event.Title,
		TicketID:       ticket.ID,
		TicketName:     ticket.Name,
		Amount:         ticket.Price,
		PaymentID:      paymentID,
		ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishRegistrationConfirmed(ctx, ev)
	}()
}
