package model

import "time"

// Payment statuses.  A payment is created PENDING alongside a paid
// registration and is only ever mutated by the gateway notification
// handler.
const (
    PaymentPending = "PENDING"
    PaymentSuccess = "SUCCESS"
    PaymentFailed  = "FAILED"
)

// Payment belongs to exactly one registration (1:1).  The ID is a UUID
// string that doubles as the gateway order_id, so an inbound
// notification maps back to exactly one payment row without any lookup
// table.
//
// Fields:
//  ID             – UUID primary key, also the gateway order_id.
//  RegistrationID – owning registration (unique).
//  Amount         – charged amount in the smallest currency unit.
//  Method         – payment method reported by the gateway (nullable).
//  Status         – PENDING, SUCCESS or FAILED.
//  GatewayToken   – Snap transaction token returned by the gateway.
//  RedirectURL    – hosted payment page the payer must follow.
//  TransactionID  – gateway-side transaction identifier (nullable).
//  PaidAt         – settlement time (null until SUCCESS).
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Payment struct {
    ID             string     // payments.id (CHAR(36) UUID)
    RegistrationID uint64     // payments.registration_id
    Amount         int64      // payments.amount
    Method         *string    // payments.method (nullable)
    Status         string     // payments.status
    GatewayToken   *string    // payments.gateway_token (nullable)
    RedirectURL    *string    // payments.redirect_url (nullable)
    TransactionID  *string    // payments.transaction_id (nullable)
    PaidAt         *time.Time // payments.paid_at (nullable)
    CreatedAt      time.Time  // payments.created_at
    UpdatedAt      time.Time  // payments.updated_at
}
