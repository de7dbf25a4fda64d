package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestMarkSuccessTxTransitions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepo(db)
	paidAt := time.Date(2026, 8, 1, 13, 45, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET status = 'SUCCESS'`)).
		WithArgs("qris", "txn-1", paidAt, "pay-uuid").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	transitioned, err := repo.MarkSuccessTx(context.Background(), tx, "pay-uuid", "qris", "txn-1", paidAt)
	require.NoError(t, err)
	require.True(t, transitioned)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSuccessTxReplayIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepo(db)
	paidAt := time.Now().UTC()

	mock.ExpectBegin()
	// Payment already left PENDING: the guarded update matches nothing.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET status = 'SUCCESS'`)).
		WithArgs("qris", "txn-1", paidAt, "pay-uuid").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	transitioned, err := repo.MarkSuccessTx(context.Background(), tx, "pay-uuid", "qris", "txn-1", paidAt)
	require.NoError(t, err)
	require.False(t, transitioned)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailedTxTransitions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET status = 'FAILED'`)).
		WithArgs("qris", "txn-1", "pay-uuid").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	transitioned, err := repo.MarkFailedTx(context.Background(), tx, "pay-uuid", "qris", "txn-1")
	require.NoError(t, err)
	require.True(t, transitioned)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevenueByEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(p.amount), 0)`)).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(450000))

	total, err := repo.RevenueByEvent(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, int64(450000), total)
	require.NoError(t, mock.ExpectationsWereMet())
}
