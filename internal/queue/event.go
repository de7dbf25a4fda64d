// Package queue defines message payloads exchanged over the message broker.
package queue

// RegistrationConfirmedEvent is published when a registration reaches
// CONFIRMED: immediately for free events, or on a successful payment
// settlement for paid ones.  It carries enough information for
// downstream consumers to log or notify without querying the primary
// database.
type RegistrationConfirmedEvent struct {
    RegistrationID uint64 `json:"registration_id"`
    UserID         uint64 `json:"user_id"`
    UserEmail      string `json:"user_email"`
    EventID        uint64 `json:"event_id"`
    EventTitle     string `json:"event_title"`
    TicketID       uint64 `json:"ticket_id"`
    TicketName     string `json:"ticket_name"`
    Amount         int64  `json:"amount"`
    PaymentID      string `json:"payment_id,omitempty"`
    ConfirmedAt    string `json:"confirmed_at"`
}
