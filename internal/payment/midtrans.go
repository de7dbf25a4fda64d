// Package payment wraps the Midtrans payment gateway behind a small
// adapter: the rest of the application only ever creates a transaction
// for an order id and amount, and maps inbound notification payloads to
// the internal three-state payment model.
package payment

import (
    "crypto/sha512"
    "crypto/subtle"
    "encoding/hex"
    "fmt"
    "time"

    "github.com/midtrans/midtrans-go"
    "github.com/midtrans/midtrans-go/snap"

    "github.com/festiva/ticketing-api/internal/model"
)

// SnapAPI is the slice of the Midtrans Snap client the gateway uses.
// Tests substitute a fake; production wires the real snap.Client.
type SnapAPI interface {
    CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// Payer identifies the paying customer on the hosted payment page.
type Payer struct {
    Name  string
    Email string
}

// Charge is the result of opening a gateway transaction: the Snap token
// and the hosted payment page the payer must be redirected to.
type Charge struct {
    Token       string `json:"token"`
    RedirectURL string `json:"redirect_url"`
}

// Gateway is the Midtrans adapter.  The server key is retained for
// verifying notification signatures.
type Gateway struct {
    api       SnapAPI
    serverKey string
}

// NewGateway builds a Gateway against the Midtrans sandbox or
// production environment.
func NewGateway(serverKey string, production bool) *Gateway {
    env := midtrans.Sandbox
    if production {
        env = midtrans.Production
    }
    client := snap.Client{}
    client.New(serverKey, env)
    return &Gateway{api: &client, serverKey: serverKey}
}

// NewGatewayWithAPI builds a Gateway around an arbitrary SnapAPI.
func NewGatewayWithAPI(api SnapAPI, serverKey string) *Gateway {
    return &Gateway{api: api, serverKey: serverKey}
}

// CreateTransaction opens a Snap transaction for the given order.  The
// order id must be the payment's UUID so the later notification maps
// back to exactly one payment row.  The SDK applies its own HTTP
// timeout; errors are returned to the caller, which responds with a
// retryable failure and leaves the PENDING payment reconcilable.
func (g *Gateway) CreateTransaction(orderID string, amount int64, itemName string, payer Payer) (*Charge, error) {
    req := &snap.Request{
        TransactionDetails: midtrans.TransactionDetails{
            OrderID:  orderID,
            GrossAmt: amount,
        },
        CustomerDetail: &midtrans.CustomerDetails{
            FName: payer.Name,
            Email: payer.Email,
        },
        Items: &[]midtrans.ItemDetails{{
            ID:    orderID,
            Name:  itemName,
            Price: amount,
            Qty:   1,
        }},
    }
    resp, mErr := g.api.CreateTransaction(req)
    if mErr != nil {
        return nil, fmt.Errorf("snap create transaction: %w", mErr)
    }
    return &Charge{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// Notification is the payload Midtrans POSTs to the notification
// endpoint.  Only the fields the handler consumes are declared.
type Notification struct {
    OrderID           string `json:"order_id"`
    TransactionID     string `json:"transaction_id"`
    TransactionStatus string `json:"transaction_status"`
    FraudStatus       string `json:"fraud_status"`
    PaymentType       string `json:"payment_type"`
    StatusCode        string `json:"status_code"`
    GrossAmount       string `json:"gross_amount"`
    SignatureKey      string `json:"signature_key"`
    SettlementTime    string `json:"settlement_time"`
    TransactionTime   string `json:"transaction_time"`
}

// ValidSignature checks the notification's SHA-512 signature:
// sha512(order_id + status_code + gross_amount + server_key).
func (g *Gateway) ValidSignature(n Notification) bool {
    sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + g.serverKey))
    expected := hex.EncodeToString(sum[:])
    return subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) == 1
}

// MapStatus translates the gateway's transaction-status vocabulary into
// the internal three-state model: settlement (and an accepted capture)
// mean SUCCESS; deny, cancel and expire are terminal failures;
// everything else stays PENDING.
func MapStatus(transactionStatus, fraudStatus string) string {
    switch transactionStatus {
    case "capture":
        if fraudStatus == "accept" {
            return model.PaymentSuccess
        }
        return model.PaymentPending
    case "settlement":
        return model.PaymentSuccess
    case "deny", "cancel", "expire":
        return model.PaymentFailed
    default: // "pending", "authorize", anything unrecognised
        return model.PaymentPending
    }
}

// SettledAt extracts the settlement timestamp from a notification,
// falling back to the transaction time and finally to now.  Midtrans
// formats times as "2006-01-02 15:04:05" in its local zone; they are
// stored as reported.
func SettledAt(n Notification) time.Time {
    const layout = "2006-01-02 15:04:05"
    if t, err := time.Parse(layout, n.SettlementTime); err == nil {
        return t
    }
    if t, err := time.Parse(layout, n.TransactionTime); err == nil {
        return t
    }
    return time.Now().UTC()
}
