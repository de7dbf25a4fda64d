package repository

import (
    "context"
    "database/sql"

    "github.com/festiva/ticketing-api/internal/model"
)

// TicketRepo provides CRUD operations for tickets plus the conditional
// stock writes used by the registration workflow.  Quantity is only
// ever decremented through DecrementStockTx, which refuses to go below
// zero, and restored through RestoreStockTx when a payment terminally
// fails.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `id, event_id, name, price, quantity, created_at, updated_at`

func scanTicket(row interface{ Scan(...any) error }) (model.Ticket, error) {
    var t model.Ticket
    err := row.Scan(&t.ID, &t.EventID, &t.Name, &t.Price, &t.Quantity, &t.CreatedAt, &t.UpdatedAt)
    return t, err
}

// Create inserts a ticket type for an event and populates its ID.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
    const q = `INSERT INTO tickets (event_id, name, price, quantity) VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, t.EventID, t.Name, t.Price, t.Quantity)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    return nil
}

// GetByID returns a ticket by id.  ErrTicketNotFound is returned when
// no row exists.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (model.Ticket, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)
    t, err := scanTicket(row)
    if err == sql.ErrNoRows {
        return model.Ticket{}, ErrTicketNotFound
    }
    return t, err
}

// GetByIDTx is GetByID inside an open transaction.
func (r *TicketRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Ticket, error) {
    row := tx.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)
    t, err := scanTicket(row)
    if err == sql.ErrNoRows {
        return model.Ticket{}, ErrTicketNotFound
    }
    return t, err
}

// ListByEvent returns all ticket types for an event.
func (r *TicketRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Ticket, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE event_id = ? ORDER BY price ASC`, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    tickets := make([]model.Ticket, 0)
    for rows.Next() {
        t, err := scanTicket(rows)
        if err != nil {
            return nil, err
        }
        tickets = append(tickets, t)
    }
    return tickets, rows.Err()
}

// Update rewrites name, price and quantity of a ticket after verifying
// that the ticket's event belongs to the organizer.
func (r *TicketRepo) Update(ctx context.Context, t *model.Ticket, organizerID uint64) error {
    if err := r.checkOwnership(ctx, t.ID, organizerID); err != nil {
        return err
    }
    const q = `UPDATE tickets SET name = ?, price = ?, quantity = ? WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, t.Name, t.Price, t.Quantity, t.ID)
    return err
}

// Delete removes a ticket type after verifying ownership through the
// owning event.
func (r *TicketRepo) Delete(ctx context.Context, id, organizerID uint64) error {
    if err := r.checkOwnership(ctx, id, organizerID); err != nil {
        return err
    }
    _, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id)
    return err
}

// DecrementStockTx atomically takes one unit of stock inside the given
// transaction.  The WHERE clause guards against going negative: when
// the ticket is already sold out the update matches zero rows and
// ErrSoldOut is returned.  Concurrent registrations against the last
// unit race on this single statement, so exactly one of them wins.
func (r *TicketRepo) DecrementStockTx(ctx context.Context, tx *sql.Tx, ticketID uint64) error {
    const q = `UPDATE tickets SET quantity = quantity - 1 WHERE id = ? AND quantity > 0`
    res, err := tx.ExecContext(ctx, q, ticketID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrSoldOut
    }
    return nil
}

// RestoreStockTx returns one unit of stock to a ticket.  Used when a
// terminal payment failure cancels a pending registration.
func (r *TicketRepo) RestoreStockTx(ctx context.Context, tx *sql.Tx, ticketID uint64) error {
    const q = `UPDATE tickets SET quantity = quantity + 1 WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, ticketID)
    return err
}

func (r *TicketRepo) checkOwnership(ctx context.Context, ticketID, organizerID uint64) error {
    const q = `SELECT e.organizer_id FROM tickets t JOIN events e ON e.id = t.event_id WHERE t.id = ?`
    var owner uint64
    err := r.db.QueryRowContext(ctx, q, ticketID).Scan(&owner)
    if err == sql.ErrNoRows {
        return ErrTicketNotFound
    }
    if err != nil {
        return err
    }
    if owner != organizerID {
        return ErrForbidden
    }
    return nil
}
