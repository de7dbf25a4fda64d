package payment

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/stretchr/testify/require"

	"github.com/festiva/ticketing-api/internal/model"
)

type fakeSnap struct {
	lastReq *snap.Request
	resp    *snap.Response
	err     *midtrans.Error
}

func (f *fakeSnap) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	f.lastReq = req
	return f.resp, f.err
}

func TestCreateTransaction(t *testing.T) {
	fake := &fakeSnap{resp: &snap.Response{Token: "tok-1", RedirectURL: "https://pay.example/tok-1"}}
	g := NewGatewayWithAPI(fake, "server-key")

	charge, err := g.CreateTransaction("order-1", 150000, "Go Conference - Early Bird", Payer{Name: "Jane Doe", Email: "jane@example.com"})
	require.NoError(t, err)
	require.Equal(t, "tok-1", charge.Token)
	require.Equal(t, "https://pay.example/tok-1", charge.RedirectURL)

	require.Equal(t, "order-1", fake.lastReq.TransactionDetails.OrderID)
	require.Equal(t, int64(150000), fake.lastReq.TransactionDetails.GrossAmt)
	require.Equal(t, "jane@example.com", fake.lastReq.CustomerDetail.Email)
	require.Equal(t, "Go Conference - Early Bird", (*fake.lastReq.Items)[0].Name)
}

func TestCreateTransactionError(t *testing.T) {
	fake := &fakeSnap{err: &midtrans.Error{Message: "midtrans is down"}}
	g := NewGatewayWithAPI(fake, "server-key")

	_, err := g.CreateTransaction("order-1", 1000, "item", Payer{})
	require.Error(t, err)
}

func TestValidSignature(t *testing.T) {
	n := Notification{
		OrderID:     "order-1",
		StatusCode:  "200",
		GrossAmount: "150000.00",
	}
	sum := sha512.Sum512([]byte("order-1" + "200" + "150000.00" + "server-key"))
	n.SignatureKey = hex.EncodeToString(sum[:])

	g := NewGatewayWithAPI(nil, "server-key")
	require.True(t, g.ValidSignature(n))

	n.SignatureKey = "deadbeef"
	require.False(t, g.ValidSignature(n))

	// Signature computed with a different server key must not validate.
	other := sha512.Sum512([]byte("order-1" + "200" + "150000.00" + "other-key"))
	n.SignatureKey = hex.EncodeToString(other[:])
	require.False(t, g.ValidSignature(n))
}

func TestMapStatus(t *testing.T) {
	cases := []struct {
		txn   string
		fraud string
		want  string
	}{
		{"settlement", "", model.PaymentSuccess},
		{"capture", "accept", model.PaymentSuccess},
		{"capture", "challenge", model.PaymentPending},
		{"deny", "", model.PaymentFailed},
		{"cancel", "", model.PaymentFailed},
		{"expire", "", model.PaymentFailed},
		{"pending", "", model.PaymentPending},
		{"authorize", "", model.PaymentPending},
		{"something-new", "", model.PaymentPending},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, MapStatus(tc.txn, tc.fraud), "status %q fraud %q", tc.txn, tc.fraud)
	}
}

func TestSettledAt(t *testing.T) {
	n := Notification{SettlementTime: "2026-08-01 13:45:00"}
	got := SettledAt(n)
	require.Equal(t, 2026, got.Year())
	require.Equal(t, 13, got.Hour())

	// Falls back to transaction time when settlement time is absent.
	n = Notification{TransactionTime: "2026-08-01 12:00:00"}
	require.Equal(t, 12, SettledAt(n).Hour())

	// Falls back to now when neither parses.
	n = Notification{}
	require.WithinDuration(t, time.Now().UTC(), SettledAt(n), 2*time.Second)
}
