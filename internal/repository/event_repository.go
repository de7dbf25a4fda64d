package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/festiva/ticketing-api/internal/model"
)

// EventRepo provides CRUD operations for events.  Events belong to
// exactly one organizer; mutating operations verify ownership and
// return ErrForbidden when the caller does not own the event.  Approval
// is a separate operation restricted to administrators at the handler
// level.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// that span multiple repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventColumns = `id, organizer_id, title, description, location, starts_at, ends_at,
       is_paid, is_approved, category, banner_url, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
    var e model.Event
    var banner sql.NullString
    err := row.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Location,
        &e.StartsAt, &e.EndsAt, &e.IsPaid, &e.IsApproved, &e.Category, &banner,
        &e.CreatedAt, &e.UpdatedAt)
    if err != nil {
        return model.Event{}, err
    }
    if banner.Valid {
        b := banner.String
        e.BannerURL = &b
    }
    return e, nil
}

// Create inserts a new event owned by the given organizer.  New events
// are always unapproved regardless of the input.  The generated ID is
// populated on the provided event.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
    const q = `INSERT INTO events (organizer_id, title, description, location, starts_at, ends_at, is_paid, category, banner_url)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, e.OrganizerID, e.Title, e.Description, e.Location,
        e.StartsAt.UTC(), e.EndsAt.UTC(), e.IsPaid, e.Category, e.BannerURL)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    return nil
}

// GetByID returns an event by id.  ErrEventNotFound is returned when no
// row exists.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
    e, err := scanEvent(row)
    if err == sql.ErrNoRows {
        return model.Event{}, ErrEventNotFound
    }
    return e, err
}

// GetByIDTx is GetByID inside an open transaction.
func (r *EventRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Event, error) {
    row := tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
    e, err := scanEvent(row)
    if err == sql.ErrNoRows {
        return model.Event{}, ErrEventNotFound
    }
    return e, err
}

// ListApproved returns approved events, optionally filtered by category,
// ordered by start time.  Only approved events are browsable by the
// public.
func (r *EventRepo) ListApproved(ctx context.Context, category string) ([]model.Event, error) {
    q := `SELECT ` + eventColumns + ` FROM events WHERE is_approved = 1`
    args := []any{}
    if c := strings.TrimSpace(category); c != "" {
        q += ` AND category = ?`
        args = append(args, strings.ToUpper(c))
    }
    q += ` ORDER BY starts_at ASC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    events := make([]model.Event, 0)
    for rows.Next() {
        e, err := scanEvent(rows)
        if err != nil {
            return nil, err
        }
        events = append(events, e)
    }
    return events, rows.Err()
}

// ListByOrganizer returns all events owned by the given organizer,
// newest first.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]model.Event, error) {
    const q = `SELECT ` + eventColumns + ` FROM events WHERE organizer_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, organizerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    events := make([]model.Event, 0)
    for rows.Next() {
        e, err := scanEvent(rows)
        if err != nil {
            return nil, err
        }
        events = append(events, e)
    }
    return events, rows.Err()
}

// ListPendingApproval returns unapproved events for the admin review
// queue, oldest first.
func (r *EventRepo) ListPendingApproval(ctx context.Context) ([]model.Event, error) {
    const q = `SELECT ` + eventColumns + ` FROM events WHERE is_approved = 0 ORDER BY created_at ASC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    events := make([]model.Event, 0)
    for rows.Next() {
        e, err := scanEvent(rows)
        if err != nil {
            return nil, err
        }
        events = append(events, e)
    }
    return events, rows.Err()
}

// Update rewrites the mutable fields of an event after verifying the
// caller owns it.  Approval is never touched here; an organizer edit
// does not reset or grant approval.
func (r *EventRepo) Update(ctx context.Context, e *model.Event, organizerID uint64) error {
    owner, err := r.ownerOf(ctx, e.ID)
    if err != nil {
        return err
    }
    if owner != organizerID {
        return ErrForbidden
    }
    const q = `UPDATE events SET title = ?, description = ?, location = ?, starts_at = ?, ends_at = ?, is_paid = ?, category = ?, banner_url = ?
               WHERE id = ?`
    _, err = r.db.ExecContext(ctx, q, e.Title, e.Description, e.Location,
        e.StartsAt.UTC(), e.EndsAt.UTC(), e.IsPaid, e.Category, e.BannerURL, e.ID)
    return err
}

// Delete removes an event after verifying ownership.  Tickets and
// registrations cascade at the database level.
func (r *EventRepo) Delete(ctx context.Context, id, organizerID uint64) error {
    owner, err := r.ownerOf(ctx, id)
    if err != nil {
        return err
    }
    if owner != organizerID {
        return ErrForbidden
    }
    _, err = r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
    return err
}

// SetApproved flips the approval flag.  Only the admin handler calls
// this.
func (r *EventRepo) SetApproved(ctx context.Context, id uint64, approved bool) error {
    res, err := r.db.ExecContext(ctx, `UPDATE events SET is_approved = ? WHERE id = ?`, approved, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // Distinguish "no such event" from "already in that state".
        var exists uint64
        err := r.db.QueryRowContext(ctx, `SELECT id FROM events WHERE id = ?`, id).Scan(&exists)
        if err == sql.ErrNoRows {
            return ErrEventNotFound
        }
        return err
    }
    return nil
}

func (r *EventRepo) ownerOf(ctx context.Context, id uint64) (uint64, error) {
    var owner uint64
    err := r.db.QueryRowContext(ctx, `SELECT organizer_id FROM events WHERE id = ?`, id).Scan(&owner)
    if err == sql.ErrNoRows {
        return 0, ErrEventNotFound
    }
    return owner, err
}
