package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func setupUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db), mock
}

func accountRows(t *testing.T, id, telegramID int64, balance string) *sqlmock.Rows {
	t.Helper()
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "telegram_id", "username", "first_name", "last_name",
		"balance", "is_admin", "last_ad_watch_at", "last_free_trial_at",
		"created_at", "last_active_at",
	}).AddRow(id, telegramID, "user", "Имя", "", balance, 0, nil, nil, now, now)
}

func TestDebitAppliesWhenBalanceCovers(t *testing.T) {
	repo, mock := setupUserRepo(t)
	amount := decimal.NewFromInt(15)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = balance - ? WHERE id = ? AND balance >= ?")).
		WithArgs(amount, int64(1), amount).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Debit(context.Background(), 1, amount)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

// The WHERE guard leaves the row untouched when the balance is short; the
// caller sees false, not an error.
func TestDebitRefusedWhenBalanceShort(t *testing.T) {
	repo, mock := setupUserRepo(t)
	amount := decimal.NewFromInt(100)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = balance - ? WHERE id = ? AND balance >= ?")).
		WithArgs(amount, int64(1), amount).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Debit(context.Background(), 1, amount)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditMissingAccount(t *testing.T) {
	repo, mock := setupUserRepo(t)
	amount := decimal.NewFromInt(50)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = balance + ? WHERE id = ?")).
		WithArgs(amount, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Credit(context.Background(), 42, amount)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureCreatesMissingAccount(t *testing.T) {
	repo, mock := setupUserRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE telegram_id = ?")).
		WithArgs(int64(777)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs(int64(777), "user", "Имя", "", 0).
		WillReturnResult(sqlmock.NewResult(7, 1))

	account, created, err := repo.Ensure(context.Background(), 777, "user", "Имя", "", false)
	require.NoError(t, err)
	require.True(t, created)
	require.EqualValues(t, 7, account.ID)
	require.True(t, account.Balance.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

// Repeat contact refreshes the profile but never touches the balance.
func TestEnsureRefreshesExistingAccount(t *testing.T) {
	repo, mock := setupUserRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE telegram_id = ?")).
		WithArgs(int64(777)).
		WillReturnRows(accountRows(t, 3, 777, "250"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET username = NULLIF(?, ''), first_name = NULLIF(?, ''), last_name = NULLIF(?, ''), last_active_at = NOW()")).
		WithArgs("newname", "Имя", "", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	account, created, err := repo.Ensure(context.Background(), 777, "newname", "Имя", "", false)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "newname", account.Username)
	require.True(t, account.Balance.Equal(decimal.NewFromInt(250)))
	require.NoError(t, mock.ExpectationsWereMet())
}
