package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/festiva/ticketing-api/internal/model"
)

func TestCreateTxDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRegistrationRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO registrations`)).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '1-2' for key 'uq_registrations_user_event'"))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	reg := model.Registration{UserID: 1, EventID: 2, TicketID: 3, Status: model.RegistrationPending, QRCode: "code"}
	require.ErrorIs(t, repo.CreateTx(context.Background(), tx, &reg), ErrAlreadyRegistered)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTxPopulatesID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRegistrationRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO registrations`)).
		WithArgs(uint64(1), uint64(2), uint64(3), model.RegistrationConfirmed, "code", "").
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	reg := model.Registration{UserID: 1, EventID: 2, TicketID: 3, Status: model.RegistrationConfirmed, QRCode: "code"}
	require.NoError(t, repo.CreateTx(context.Background(), tx, &reg))
	require.Equal(t, uint64(77), reg.ID)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRegistrationRepo(db)
	at := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE registrations SET checked_in = 1, checked_in_at = ? WHERE id = ? AND checked_in = 0`)).
		WithArgs(at, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CheckIn(context.Background(), 9, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInAlreadyCheckedIn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRegistrationRepo(db)
	at := time.Now().UTC()

	// The conditional update matches no rows on a second scan.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE registrations SET checked_in = 1, checked_in_at = ? WHERE id = ? AND checked_in = 0`)).
		WithArgs(at, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.CheckIn(context.Background(), 9, at), ErrAlreadyCheckedIn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsByUserAndEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRegistrationRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM registrations WHERE user_id = ? AND event_id = ? LIMIT 1`)).
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByUserAndEvent(context.Background(), 1, 2)
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM registrations WHERE user_id = ? AND event_id = ? LIMIT 1`)).
		WithArgs(uint64(1), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err = repo.ExistsByUserAndEvent(context.Background(), 1, 3)
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
