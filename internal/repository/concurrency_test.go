package repository

import (
	"context"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// Ten buyers race for three remaining tickets.  The guarded decrement
// matches a row only while quantity is positive, so exactly three
// transactions may win and the rest must see ErrSoldOut; stock can never
// go negative because a zero-row update is the only other outcome.
func TestDecrementStockTxConcurrentBuyers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	const buyers = 10
	const stock = 3

	mock.MatchExpectationsInOrder(false)
	for i := 0; i < buyers; i++ {
		mock.ExpectBegin()
	}
	for i := 0; i < stock; i++ {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET quantity = quantity - 1 WHERE id = ? AND quantity > 0`)).
			WithArgs(uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	for i := 0; i < buyers-stock; i++ {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET quantity = quantity - 1 WHERE id = ? AND quantity > 0`)).
			WithArgs(uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	for i := 0; i < stock; i++ {
		mock.ExpectCommit()
	}
	for i := 0; i < buyers-stock; i++ {
		mock.ExpectRollback()
	}

	repo := NewTicketRepo(db)

	var won, soldOut int64
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := db.Begin()
			if err != nil {
				t.Errorf("begin failed: %v", err)
				return
			}
			switch err := repo.DecrementStockTx(context.Background(), tx, 5); err {
			case nil:
				atomic.AddInt64(&won, 1)
				if err := tx.Commit(); err != nil {
					t.Errorf("commit failed: %v", err)
				}
			case ErrSoldOut:
				atomic.AddInt64(&soldOut, 1)
				if err := tx.Rollback(); err != nil {
					t.Errorf("rollback failed: %v", err)
				}
			default:
				t.Errorf("unexpected decrement error: %v", err)
				_ = tx.Rollback()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(stock), won, "winners must match the remaining stock exactly")
	require.Equal(t, int64(buyers-stock), soldOut)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Several gate scanners redeem the same code at once; the conditional
// flip on checked_in admits exactly one of them.
func TestCheckInConcurrentScans(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	const scanners = 8

	mock.MatchExpectationsInOrder(false)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE registrations SET checked_in = 1, checked_in_at = ? WHERE id = ? AND checked_in = 0`)).
		WithArgs(sqlmock.AnyArg(), uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for i := 1; i < scanners; i++ {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE registrations SET checked_in = 1, checked_in_at = ? WHERE id = ? AND checked_in = 0`)).
			WithArgs(sqlmock.AnyArg(), uint64(77)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	repo := NewRegistrationRepo(db)

	var admitted, rejected int64
	var wg sync.WaitGroup
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := repo.CheckIn(context.Background(), 77, time.Now()); err {
			case nil:
				atomic.AddInt64(&admitted, 1)
			case ErrAlreadyCheckedIn:
				atomic.AddInt64(&rejected, 1)
			default:
				t.Errorf("unexpected check-in error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(1), admitted, "a check-in code must only ever admit once")
	require.Equal(t, int64(scanners-1), rejected)
	require.NoError(t, mock.ExpectationsWereMet())
}
