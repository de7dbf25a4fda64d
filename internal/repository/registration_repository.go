package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/festiva/ticketing-api/internal/model"
)

// RegistrationRepo provides persistence for registrations.  The
// registrations table carries a UNIQUE KEY on (user_id, event_id), so
// duplicate registration attempts fail at insert time regardless of any
// earlier existence check; the repository maps that constraint
// violation to ErrAlreadyRegistered.  All timestamps are stored in UTC.
type RegistrationRepo struct {
    db *sql.DB
}

// NewRegistrationRepo returns a new RegistrationRepo bound to the given
// database.
func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// that span multiple repositories.
func (r *RegistrationRepo) DB() *sql.DB { return r.db }

const registrationColumns = `id, user_id, event_id, ticket_id, status, qr_code, checkin_url,
       checked_in, checked_in_at, created_at, updated_at`

func scanRegistration(row interface{ Scan(...any) error }) (model.Registration, error) {
    var reg model.Registration
    var checkedInAt sql.NullTime
    err := row.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.TicketID, &reg.Status,
        &reg.QRCode, &reg.CheckinURL, &reg.CheckedIn, &checkedInAt, &reg.CreatedAt, &reg.UpdatedAt)
    if err != nil {
        return model.Registration{}, err
    }
    if checkedInAt.Valid {
        t := checkedInAt.Time
        reg.CheckedInAt = &t
    }
    return reg, nil
}

// ExistsByUserAndEvent reports whether a registration already exists for
// the (user, event) pair.  This is a fast-path check only; the unique
// key is the real guard against concurrent duplicates.
func (r *RegistrationRepo) ExistsByUserAndEvent(ctx context.Context, userID, eventID uint64) (bool, error) {
    var one int
    err := r.db.QueryRowContext(ctx,
        `SELECT 1 FROM registrations WHERE user_id = ? AND event_id = ? LIMIT 1`,
        userID, eventID).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// CreateTx inserts a new registration within the scope of an existing
// transaction and populates the generated ID.  A duplicate (user,
// event) pair surfaces as ErrAlreadyRegistered via the MySQL 1062
// duplicate-key error.  The caller must commit or roll back.
func (r *RegistrationRepo) CreateTx(ctx context.Context, tx *sql.Tx, reg *model.Registration) error {
    const q = `INSERT INTO registrations (user_id, event_id, ticket_id, status, qr_code, checkin_url)
               VALUES (?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, reg.UserID, reg.EventID, reg.TicketID, reg.Status, reg.QRCode, reg.CheckinURL)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrAlreadyRegistered
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    reg.ID = uint64(id)
    return nil
}

// SetCheckinURLTx stores the public check-in URL on a registration.  The
// URL embeds a token signed over the registration id, so it can only be
// computed after CreateTx has populated the id.
func (r *RegistrationRepo) SetCheckinURLTx(ctx context.Context, tx *sql.Tx, registrationID uint64, url string) error {
    _, err := tx.ExecContext(ctx, `UPDATE registrations SET checkin_url = ? WHERE id = ?`, url, registrationID)
    return err
}

// GetByID returns a registration by id.
func (r *RegistrationRepo) GetByID(ctx context.Context, id uint64) (model.Registration, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = ?`, id)
    reg, err := scanRegistration(row)
    if err == sql.ErrNoRows {
        return model.Registration{}, ErrRegistrationNotFound
    }
    return reg, err
}

// GetByIDTx is the transactional variant of GetByID.
func (r *RegistrationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Registration, error) {
    row := tx.QueryRowContext(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = ?`, id)
    reg, err := scanRegistration(row)
    if err == sql.ErrNoRows {
        return model.Registration{}, ErrRegistrationNotFound
    }
    return reg, err
}

// GetByIDForUser returns a registration only when it belongs to the
// given user; other users' registrations yield ErrRegistrationNotFound
// rather than ErrForbidden so the endpoint does not leak existence.
func (r *RegistrationRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (model.Registration, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+registrationColumns+` FROM registrations WHERE id = ? AND user_id = ?`, id, userID)
    reg, err := scanRegistration(row)
    if err == sql.ErrNoRows {
        return model.Registration{}, ErrRegistrationNotFound
    }
    return reg, err
}

// GetByCode looks up the registration whose stored one-time code equals
// the token's qr_token claim.  The id from the token narrows the lookup
// but the code must match exactly.
func (r *RegistrationRepo) GetByCode(ctx context.Context, registrationID uint64, code string) (model.Registration, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+registrationColumns+` FROM registrations WHERE id = ? AND qr_code = ?`, registrationID, code)
    reg, err := scanRegistration(row)
    if err == sql.ErrNoRows {
        return model.Registration{}, ErrRegistrationNotFound
    }
    return reg, err
}

// CheckIn flips checked_in exactly once.  The conditional WHERE makes
// the read-then-write race-free: of two concurrent scans only one
// update matches a row, and the loser receives ErrAlreadyCheckedIn.
func (r *RegistrationRepo) CheckIn(ctx context.Context, registrationID uint64, at time.Time) error {
    const q = `UPDATE registrations SET checked_in = 1, checked_in_at = ? WHERE id = ? AND checked_in = 0`
    res, err := r.db.ExecContext(ctx, q, at.UTC(), registrationID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrAlreadyCheckedIn
    }
    return nil
}

// UpdateStatusTx transitions a registration's status inside an open
// transaction.  Used by the payment notification handler to confirm or
// cancel pending registrations.
func (r *RegistrationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, registrationID uint64, status string) error {
    _, err := tx.ExecContext(ctx, `UPDATE registrations SET status = ? WHERE id = ?`, status, registrationID)
    return err
}

// RegistrationDetail is a registration joined with its event and ticket
// summaries for display to the attendee.
type RegistrationDetail struct {
    ID          uint64     `json:"id"`
    Status      string     `json:"status"`
    CheckinURL  string     `json:"checkin_url"`
    CheckedIn   bool       `json:"checked_in"`
    CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
    CreatedAt   time.Time  `json:"created_at"`
    EventID     uint64     `json:"event_id"`
    EventTitle  string     `json:"event_title"`
    Location    string     `json:"location"`
    StartsAt    time.Time  `json:"starts_at"`
    TicketID    uint64     `json:"ticket_id"`
    TicketName  string     `json:"ticket_name"`
    TicketPrice int64      `json:"ticket_price"`
}

// ListByUser returns all registrations for the given user with event and
// ticket details, newest first.
func (r *RegistrationRepo) ListByUser(ctx context.Context, userID uint64) ([]RegistrationDetail, error) {
    const q = `SELECT r.id, r.status, r.checkin_url, r.checked_in, r.checked_in_at, r.created_at,
                      e.id, e.title, e.location, e.starts_at,
                      t.id, t.name, t.price
               FROM registrations r
               JOIN events e ON e.id = r.event_id
               JOIN tickets t ON t.id = r.ticket_id
               WHERE r.user_id = ?
               ORDER BY r.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]RegistrationDetail, 0)
    for rows.Next() {
        var d RegistrationDetail
        var checkedInAt sql.NullTime
        if err := rows.Scan(&d.ID, &d.Status, &d.CheckinURL, &d.CheckedIn, &checkedInAt, &d.CreatedAt,
            &d.EventID, &d.EventTitle, &d.Location, &d.StartsAt,
            &d.TicketID, &d.TicketName, &d.TicketPrice); err != nil {
            return nil, err
        }
        if checkedInAt.Valid {
            t := checkedInAt.Time
            d.CheckedInAt = &t
        }
        details = append(details, d)
    }
    return details, rows.Err()
}

// AttendeeInfo carries the names returned by a successful check-in.
type AttendeeInfo struct {
    AttendeeName string
    EventTitle   string
}

// AttendeeInfoByID resolves the attendee name and event title for a
// registration, for the check-in confirmation response.
func (r *RegistrationRepo) AttendeeInfoByID(ctx context.Context, registrationID uint64) (AttendeeInfo, error) {
    const q = `SELECT u.full_name, e.title
               FROM registrations r
               JOIN users u ON u.id = r.user_id
               JOIN events e ON e.id = r.event_id
               WHERE r.id = ?`
    var info AttendeeInfo
    err := r.db.QueryRowContext(ctx, q, registrationID).Scan(&info.AttendeeName, &info.EventTitle)
    if err == sql.ErrNoRows {
        return AttendeeInfo{}, ErrRegistrationNotFound
    }
    return info, err
}

// EventStats aggregates registration and attendance counters for one
// event, for the organizer dashboard.
type EventStats struct {
    TotalRegistrations int64 `json:"total_registrations"`
    Confirmed          int64 `json:"confirmed"`
    Pending            int64 `json:"pending"`
    Cancelled          int64 `json:"cancelled"`
    CheckedIn          int64 `json:"checked_in"`
}

// StatsByEvent computes status and check-in counters for an event in a
// single pass.
func (r *RegistrationRepo) StatsByEvent(ctx context.Context, eventID uint64) (EventStats, error) {
    const q = `SELECT
                   COUNT(*),
                   COALESCE(SUM(status = 'CONFIRMED'), 0),
                   COALESCE(SUM(status = 'PENDING'), 0),
                   COALESCE(SUM(status = 'CANCELLED'), 0),
                   COALESCE(SUM(checked_in = 1), 0)
               FROM registrations WHERE event_id = ?`
    var s EventStats
    err := r.db.QueryRowContext(ctx, q, eventID).Scan(
        &s.TotalRegistrations, &s.Confirmed, &s.Pending, &s.Cancelled, &s.CheckedIn)
    return s, err
}

// DayBucket is one day of registration volume.
type DayBucket struct {
    Day   string `json:"day"`
    Count int64  `json:"count"`
}

// RegistrationsPerDay buckets an event's registrations by creation day,
// oldest first.
func (r *RegistrationRepo) RegistrationsPerDay(ctx context.Context, eventID uint64) ([]DayBucket, error) {
    const q = `SELECT DATE_FORMAT(created_at, '%Y-%m-%d') AS day, COUNT(*)
               FROM registrations WHERE event_id = ?
               GROUP BY day ORDER BY day ASC`
    rows, err := r.db.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    buckets := make([]DayBucket, 0)
    for rows.Next() {
        var b DayBucket
        if err := rows.Scan(&b.Day, &b.Count); err != nil {
            return nil, err
        }
        buckets = append(buckets, b)
    }
    return buckets, rows.Err()
}
