package handler

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/festiva/ticketing-api/internal/model"
	"github.com/festiva/ticketing-api/internal/repository"
	"github.com/festiva/ticketing-api/internal/utils"
)

func checkinCtx(e *echo.Echo, token string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/v1/checkin/"+token, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/checkin/:token")
	c.SetParamNames("token")
	c.SetParamValues(token)
	c.Set("user_id", uint64(10))
	c.Set("role", model.RoleOrganizer)
	return c, rec
}

func TestRedeemCheckin(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig()
	token, err := utils.NewCheckinToken(cfg.JWTSecret, 77, "code", 30)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = ? AND qr_code = ?`)).
		WithArgs(uint64(77), "code").
		WillReturnRows(registrationRow(model.RegistrationConfirmed))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE registrations SET checked_in = 1`)).
		WithArgs(sqlmock.AnyArg(), uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT u.full_name, e.title`)).
		WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"full_name", "title"}).AddRow("Jane Doe", "Go Conference"))

	h := NewCheckinHandler(cfg, repository.NewRegistrationRepo(db))

	c, rec := checkinCtx(echo.New(), token)
	require.NoError(t, h.Redeem(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Jane Doe")
	require.Contains(t, rec.Body.String(), "Go Conference")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemTwiceConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig()
	token, err := utils.NewCheckinToken(cfg.JWTSecret, 77, "code", 30)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = ? AND qr_code = ?`)).
		WithArgs(uint64(77), "code").
		WillReturnRows(registrationRow(model.RegistrationConfirmed))
	// Second scan: the conditional update finds checked_in already set.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE registrations SET checked_in = 1`)).
		WithArgs(sqlmock.AnyArg(), uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	h := NewCheckinHandler(cfg, repository.NewRegistrationRepo(db))

	c, rec := checkinCtx(echo.New(), token)
	require.NoError(t, h.Redeem(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "already checked in")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemUnpaidRegistration(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig()
	token, err := utils.NewCheckinToken(cfg.JWTSecret, 77, "code", 30)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = ? AND qr_code = ?`)).
		WithArgs(uint64(77), "code").
		WillReturnRows(registrationRow(model.RegistrationPending))

	h := NewCheckinHandler(cfg, repository.NewRegistrationRepo(db))

	c, rec := checkinCtx(echo.New(), token)
	require.NoError(t, h.Redeem(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "payment not completed")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemForgedToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig()
	// Signed with a different secret; must never reach the database.
	token, err := utils.NewCheckinToken("wrong-secret", 77, "code", 30)
	require.NoError(t, err)

	h := NewCheckinHandler(cfg, repository.NewRegistrationRepo(db))

	c, rec := checkinCtx(echo.New(), token)
	require.NoError(t, h.Redeem(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemUnknownCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig()
	token, err := utils.NewCheckinToken(cfg.JWTSecret, 77, "stale-code", 30)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = ? AND qr_code = ?`)).
		WithArgs(uint64(77), "stale-code").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	h := NewCheckinHandler(cfg, repository.NewRegistrationRepo(db))

	c, rec := checkinCtx(echo.New(), token)
	require.NoError(t, h.Redeem(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
