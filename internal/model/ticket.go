package model

import "time"

// Ticket is a purchasable ticket type belonging to exactly one event.
// Quantity is the remaining stock and is only ever changed through the
// conditional decrement in the ticket repository, which refuses to go
// below zero.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – owning event.
//  Name      – ticket type name (e.g. "Early Bird", "VIP").
//  Price     – unit price in the smallest currency unit.
//  Quantity  – remaining purchasable stock (never negative).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Ticket struct {
    ID        uint64    // tickets.id
    EventID   uint64    // tickets.event_id
    Name      string    // tickets.name
    Price     int64     // tickets.price
    Quantity  uint32    // tickets.quantity
    CreatedAt time.Time // tickets.created_at
    UpdatedAt time.Time // tickets.updated_at
}
