package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/festiva/ticketing-api/internal/repository"
)

func browseCtx(e *echo.Echo, id string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/v1/events/"+id, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/events/:id")
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestGetEventUnknownID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM events WHERE id = `).WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	h := NewPublicBrowseHandler(repository.NewEventRepo(db), repository.NewTicketRepo(db))

	c, rec := browseCtx(echo.New(), "42")
	require.NoError(t, h.GetEvent(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "event not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEventHidesUnapproved(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	pending := sqlmock.NewRows([]string{"id", "organizer_id", "title", "description", "location", "starts_at", "ends_at",
		"is_paid", "is_approved", "category", "banner_url", "created_at", "updated_at"}).
		AddRow(42, 10, "Go Conference", "desc", "Jakarta", now.Add(24*time.Hour), now.Add(30*time.Hour),
			false, false, "TECH", nil, now, now)
	mock.ExpectQuery(`SELECT .+ FROM events WHERE id = `).WithArgs(uint64(42)).WillReturnRows(pending)

	h := NewPublicBrowseHandler(repository.NewEventRepo(db), repository.NewTicketRepo(db))

	c, rec := browseCtx(echo.New(), "42")
	require.NoError(t, h.GetEvent(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
