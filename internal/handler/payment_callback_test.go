package handler

import (
	"crypto/sha512"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/festiva/ticketing-api/internal/model"
	"github.com/festiva/ticketing-api/internal/payment"
	"github.com/festiva/ticketing-api/internal/repository"
)

const testServerKey = "server-key"

func newCallbackHandler(db *sql.DB) *PaymentCallbackHandler {
	return NewPaymentCallbackHandler(
		payment.NewGatewayWithAPI(nil, testServerKey),
		repository.NewUserRepo(db),
		repository.NewEventRepo(db),
		repository.NewTicketRepo(db),
		repository.NewRegistrationRepo(db),
		repository.NewPaymentRepo(db),
	)
}

func signedNotification(orderID, txnStatus string) string {
	statusCode := "200"
	gross := "150000.00"
	sum := sha512.Sum512([]byte(orderID + statusCode + gross + testServerKey))
	return fmt.Sprintf(`{
		"order_id": %q,
		"transaction_id": "txn-1",
		"transaction_status": %q,
		"payment_type": "qris",
		"status_code": %q,
		"gross_amount": %q,
		"signature_key": %q,
		"settlement_time": "2026-08-01 13:45:00"
	}`, orderID, txnStatus, statusCode, gross, hex.EncodeToString(sum[:]))
}

func notificationCtx(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/notification", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func paymentRow(status string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "registration_id", "amount", "method", "status",
		"gateway_token", "redirect_url", "transaction_id", "paid_at", "created_at", "updated_at"}).
		AddRow("pay-uuid", 77, 150000, nil, status, nil, nil, nil, nil, now, now)
}

func registrationRow(status string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "user_id", "event_id", "ticket_id", "status", "qr_code",
		"checkin_url", "checked_in", "checked_in_at", "created_at", "updated_at"}).
		AddRow(77, 1, 2, 3, status, "code", "https://api.festiva.test/v1/checkin/tok", false, nil, now, now)
}

func TestNotificationSettlement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM payments WHERE id = `).
		WithArgs("pay-uuid").WillReturnRows(paymentRow(model.PaymentPending))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET status = 'SUCCESS'`)).
		WithArgs("qris", "txn-1", sqlmock.AnyArg(), "pay-uuid").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE registrations SET status = ?`)).
		WithArgs(model.RegistrationConfirmed, uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	// Post-settlement queue announcement loads the joined details.
	mock.ExpectQuery(`SELECT .+ FROM registrations WHERE id = `).
		WithArgs(uint64(77)).WillReturnRows(registrationRow(model.RegistrationConfirmed))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id=`).WithArgs(uint64(1)).WillReturnRows(userRow())
	mock.ExpectQuery(`SELECT .+ FROM events WHERE id = `).WithArgs(uint64(2)).WillReturnRows(eventRow(true))
	mock.ExpectQuery(`SELECT .+ FROM tickets WHERE id = `).WithArgs(uint64(3)).WillReturnRows(ticketRow(150000, 4))

	h := newCallbackHandler(db)

	c, rec := notificationCtx(echo.New(), signedNotification("pay-uuid", "settlement"))
	require.NoError(t, h.Notification(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationReplayIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM payments WHERE id = `).
		WithArgs("pay-uuid").WillReturnRows(paymentRow(model.PaymentSuccess))
	mock.ExpectBegin()
	// Already SUCCESS: the guarded update matches nothing, and neither the
	// registration update nor the queue announcement runs again.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET status = 'SUCCESS'`)).
		WithArgs("qris", "txn-1", sqlmock.AnyArg(), "pay-uuid").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	h := newCallbackHandler(db)

	c, rec := notificationCtx(echo.New(), signedNotification("pay-uuid", "settlement"))
	require.NoError(t, h.Notification(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationFailureRestoresStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM payments WHERE id = `).
		WithArgs("pay-uuid").WillReturnRows(paymentRow(model.PaymentPending))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET status = 'FAILED'`)).
		WithArgs("qris", "txn-1", "pay-uuid").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM registrations WHERE id = `).
		WithArgs(uint64(77)).WillReturnRows(registrationRow(model.RegistrationPending))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE registrations SET status = ?`)).
		WithArgs(model.RegistrationCancelled, uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET quantity = quantity + 1`)).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	h := newCallbackHandler(db)

	c, rec := notificationCtx(echo.New(), signedNotification("pay-uuid", "expire"))
	require.NoError(t, h.Notification(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationBadSignature(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := newCallbackHandler(db)

	body := `{"order_id":"pay-uuid","transaction_status":"settlement","status_code":"200","gross_amount":"150000.00","signature_key":"deadbeef"}`
	c, rec := notificationCtx(echo.New(), body)
	require.NoError(t, h.Notification(c))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationUnknownOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM payments WHERE id = `).
		WithArgs("pay-unknown").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	h := newCallbackHandler(db)

	c, rec := notificationCtx(echo.New(), signedNotification("pay-unknown", "settlement"))
	require.NoError(t, h.Notification(c))
	// Acknowledged but ignored: the gateway must stop retrying.
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ignored")
	require.NoError(t, mock.ExpectationsWereMet())
}
