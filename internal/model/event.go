package model

import "time"

// Event represents a scheduled event owned by exactly one organizer.
// Events are created unapproved and only become publicly visible after
// an administrator flips the IsApproved flag.  Deleting an event
// cascades to its tickets and registrations at the database level.
//
// Fields:
//  ID          – primary key identifier.
//  OrganizerID – user who created the event.
//  Title       – event title.
//  Description – free-form description text.
//  Location    – venue or address.
//  StartsAt    – when the event begins.
//  EndsAt      – when the event ends (must be after StartsAt).
//  IsPaid      – whether registrations require payment.
//  IsApproved  – flipped only by administrators.
//  Category    – coarse classification (e.g. MUSIC, TECH).
//  BannerURL   – optional reference to a banner image.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
    ID          uint64    // events.id
    OrganizerID uint64    // events.organizer_id
    Title       string    // events.title
    Description string    // events.description
    Location    string    // events.location
    StartsAt    time.Time // events.starts_at
    EndsAt      time.Time // events.ends_at
    IsPaid      bool      // events.is_paid
    IsApproved  bool      // events.is_approved
    Category    string    // events.category
    BannerURL   *string   // events.banner_url (nullable)
    CreatedAt   time.Time // events.created_at
    UpdatedAt   time.Time // events.updated_at
}
