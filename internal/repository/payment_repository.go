package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/festiva/ticketing-api/internal/model"
)

// PaymentRepo provides persistence for payments.  A payment's UUID
// primary key doubles as the gateway order_id, so the notification
// handler resolves inbound callbacks with a single primary-key lookup.
// Status transitions out of PENDING are guarded in SQL, which makes
// replayed notifications harmless: once a payment has left PENDING the
// guarded update matches zero rows.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// that span multiple repositories.
func (r *PaymentRepo) DB() *sql.DB { return r.db }

const paymentColumns = `id, registration_id, amount, method, status, gateway_token,
       redirect_url, transaction_id, paid_at, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (model.Payment, error) {
    var p model.Payment
    var method, token, redirect, txnID sql.NullString
    var paidAt sql.NullTime
    err := row.Scan(&p.ID, &p.RegistrationID, &p.Amount, &method, &p.Status,
        &token, &redirect, &txnID, &paidAt, &p.CreatedAt, &p.UpdatedAt)
    if err != nil {
        return model.Payment{}, err
    }
    if method.Valid {
        v := method.String
        p.Method = &v
    }
    if token.Valid {
        v := token.String
        p.GatewayToken = &v
    }
    if redirect.Valid {
        v := redirect.String
        p.RedirectURL = &v
    }
    if txnID.Valid {
        v := txnID.String
        p.TransactionID = &v
    }
    if paidAt.Valid {
        t := paidAt.Time
        p.PaidAt = &t
    }
    return p, nil
}

// CreateTx inserts a PENDING payment row inside an open transaction.
// The caller supplies the UUID id so the gateway order_id is known
// before any external call is made.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
    const q = `INSERT INTO payments (id, registration_id, amount, status) VALUES (?, ?, ?, 'PENDING')`
    _, err := tx.ExecContext(ctx, q, p.ID, p.RegistrationID, p.Amount)
    if err != nil {
        return err
    }
    p.Status = model.PaymentPending
    return nil
}

// GetByID returns a payment by its UUID (the gateway order_id).
func (r *PaymentRepo) GetByID(ctx context.Context, id string) (model.Payment, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
    p, err := scanPayment(row)
    if err == sql.ErrNoRows {
        return model.Payment{}, ErrPaymentNotFound
    }
    return p, err
}

// GetByRegistrationID returns the payment owned by a registration.
func (r *PaymentRepo) GetByRegistrationID(ctx context.Context, registrationID uint64) (model.Payment, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE registration_id = ?`, registrationID)
    p, err := scanPayment(row)
    if err == sql.ErrNoRows {
        return model.Payment{}, ErrPaymentNotFound
    }
    return p, err
}

// AttachGatewayRef stores the Snap token and redirect URL returned by
// the gateway.  This runs outside the registration transaction: the
// PENDING row is committed first so no database lock is held while the
// gateway call is in flight.
func (r *PaymentRepo) AttachGatewayRef(ctx context.Context, id, token, redirectURL string) error {
    const q = `UPDATE payments SET gateway_token = ?, redirect_url = ? WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, token, redirectURL, id)
    return err
}

// MarkSuccessTx moves a PENDING payment to SUCCESS, recording the
// gateway method, transaction id and settlement time.  It reports
// whether a row actually transitioned, so callers can distinguish a
// first-time settlement from a replayed notification.
func (r *PaymentRepo) MarkSuccessTx(ctx context.Context, tx *sql.Tx, id, method, transactionID string, paidAt time.Time) (bool, error) {
    const q = `UPDATE payments SET status = 'SUCCESS', method = ?, transaction_id = ?, paid_at = ?
               WHERE id = ? AND status = 'PENDING'`
    res, err := tx.ExecContext(ctx, q, method, transactionID, paidAt.UTC(), id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// MarkFailedTx moves a PENDING payment to FAILED.  Like MarkSuccessTx it
// reports whether the transition happened now or had already been
// applied by an earlier notification.
func (r *PaymentRepo) MarkFailedTx(ctx context.Context, tx *sql.Tx, id, method, transactionID string) (bool, error) {
    const q = `UPDATE payments SET status = 'FAILED', method = ?, transaction_id = ?
               WHERE id = ? AND status = 'PENDING'`
    res, err := tx.ExecContext(ctx, q, method, transactionID, id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// RevenueByEvent sums successful payment amounts across an event's
// registrations, for the organizer dashboard.
func (r *PaymentRepo) RevenueByEvent(ctx context.Context, eventID uint64) (int64, error) {
    const q = `SELECT COALESCE(SUM(p.amount), 0)
               FROM payments p
               JOIN registrations r ON r.id = p.registration_id
               WHERE r.event_id = ? AND p.status = 'SUCCESS'`
    var total int64
    err := r.db.QueryRowContext(ctx, q, eventID).Scan(&total)
    return total, err
}
