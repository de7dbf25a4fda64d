// Package repository defines error values that are reused across
// repositories. These sentinels allow handlers to distinguish failure
// scenarios without string matching: ownership violations, conflicting
// writes, exhausted stock and so on map onto distinct HTTP statuses.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrEventNotFound is returned when an event id does not resolve.
var ErrEventNotFound = errors.New("event not found")

// ErrTicketNotFound is returned when a ticket id does not resolve.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrRegistrationNotFound is returned when a registration id or check-in
// code does not resolve.
var ErrRegistrationNotFound = errors.New("registration not found")

// ErrPaymentNotFound is returned when a gateway order id does not map to
// a known payment row. The notification handler logs it and still
// acknowledges the gateway.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrAlreadyRegistered is returned when the (user, event) pair already
// has a registration. The unique key on registrations makes this safe
// under concurrent inserts.
var ErrAlreadyRegistered = errors.New("already registered for this event")

// ErrSoldOut is returned when the conditional stock decrement matched no
// rows because the ticket quantity had already reached zero.
var ErrSoldOut = errors.New("ticket sold out")

// ErrAlreadyCheckedIn is returned to the loser of a concurrent check-in:
// the conditional flip only ever succeeds once per registration.
var ErrAlreadyCheckedIn = errors.New("registration already checked in")
