package model

import "time"

// Registration statuses.  Free-event registrations are CONFIRMED on
// creation; paid ones start PENDING and move to CONFIRMED when the
// payment gateway reports a successful settlement, or to CANCELLED on a
// terminal failure.
const (
    RegistrationPending   = "PENDING"
    RegistrationConfirmed = "CONFIRMED"
    RegistrationCancelled = "CANCELLED"
)

// Registration records a user's claim on one ticket for one event.  A
// UNIQUE KEY on (user_id, event_id) enforces at most one registration
// per user and event at the database level.  QRCode holds the private
// one-time check-in code; CheckinURL is the public URL embedding the
// signed check-in token handed to the attendee as a QR payload.
// CheckedIn flips exactly once, through a conditional update.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – registering user.
//  EventID     – event being registered for.
//  TicketID    – ticket type claimed.
//  Status      – PENDING, CONFIRMED or CANCELLED.
//  QRCode      – private one-time check-in code (high entropy, URL safe).
//  CheckinURL  – public check-in URL embedding the signed token.
//  CheckedIn   – whether the attendee has been scanned in.
//  CheckedInAt – when the check-in happened (null until then).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Registration struct {
    ID          uint64     // registrations.id
    UserID      uint64     // registrations.user_id
    EventID     uint64     // registrations.event_id
    TicketID    uint64     // registrations.ticket_id
    Status      string     // registrations.status
    QRCode      string     // registrations.qr_code
    CheckinURL  string     // registrations.checkin_url
    CheckedIn   bool       // registrations.checked_in
    CheckedInAt *time.Time // registrations.checked_in_at (nullable)
    CreatedAt   time.Time  // registrations.created_at
    UpdatedAt   time.Time  // registrations.updated_at
}
