package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"genmarket-bot/internal/models"
)

func setupRewardRepo(t *testing.T) (*RewardRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRewardRepository(db), mock
}

func rewardRows(id, accountID int64, amount string, status models.RewardStatus) *sqlmock.Rows {
	now := time.Now().UTC()
	var completedAt any
	if status == models.StatusCompleted {
		completedAt = now
	}
	return sqlmock.NewRows([]string{
		"id", "account_id", "amount", "currency", "status", "method",
		"comment", "created_at", "completed_at",
	}).AddRow(id, accountID, amount, "RUB", string(status), "manual", "", now, completedAt)
}

func TestCompleteCreditsAccountInOneTransaction(t *testing.T) {
	repo, mock := setupRewardRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reward_events WHERE id = ? FOR UPDATE")).
		WithArgs(int64(10)).
		WillReturnRows(rewardRows(10, 5, "300", models.StatusPending))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reward_events SET status = ?, comment = COALESCE(NULLIF(?, ''), comment), completed_at = NOW() WHERE id = ?")).
		WithArgs("completed", "", int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = balance + ? WHERE id = ?")).
		WithArgs("300", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	event, err := repo.Complete(context.Background(), 10, "")
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, event.Status)
	require.NotNil(t, event.CompletedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A terminal event is left untouched: no update, no credit, the transaction
// rolls back.
func TestCompleteAlreadySettled(t *testing.T) {
	repo, mock := setupRewardRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reward_events WHERE id = ? FOR UPDATE")).
		WithArgs(int64(10)).
		WillReturnRows(rewardRows(10, 5, "300", models.StatusCompleted))
	mock.ExpectRollback()

	_, err := repo.Complete(context.Background(), 10, "")
	require.ErrorIs(t, err, ErrEventSettled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteUnknownEvent(t *testing.T) {
	repo, mock := setupRewardRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reward_events WHERE id = ? FOR UPDATE")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Complete(context.Background(), 99, "")
	require.ErrorIs(t, err, ErrEventNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Reject records the comment but runs no balance update at all.
func TestRejectNeverTouchesBalance(t *testing.T) {
	repo, mock := setupRewardRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reward_events WHERE id = ? FOR UPDATE")).
		WithArgs(int64(11)).
		WillReturnRows(rewardRows(11, 5, "500", models.StatusPending))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reward_events SET status = ?, comment = COALESCE(NULLIF(?, ''), comment) WHERE id = ?")).
		WithArgs("rejected", "no payment received", int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	event, err := repo.Reject(context.Background(), 11, "no payment received")
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, event.Status)
	require.Equal(t, "no payment received", event.Comment)
	require.Nil(t, event.CompletedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

// CreateCompleted writes the event and the credit in a single transaction:
// either both land or neither does.
func TestCreateCompletedCreditsAtomically(t *testing.T) {
	repo, mock := setupRewardRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reward_events")).
		WithArgs(int64(5), "50", "RUB", "completed", "ad_reward", "view-id", "ad:view-id").
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = balance + ? WHERE id = ?")).
		WithArgs("50", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	event := &models.RewardEvent{
		AccountID: 5,
		Amount:    mustDecimal(t, "50"),
		Currency:  "RUB",
		Method:    models.MethodAdReward,
		Comment:   "view-id",
		DedupeKey: "ad:view-id",
	}
	require.NoError(t, repo.CreateCompleted(context.Background(), event))
	require.EqualValues(t, 21, event.ID)
	require.Equal(t, models.StatusCompleted, event.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A second event with the same dedupe key hits the unique index; the insert
// fails, the credit never runs and the transaction rolls back.
func TestCreateCompletedDuplicateKeyNeverCredits(t *testing.T) {
	repo, mock := setupRewardRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reward_events")).
		WithArgs(int64(5), "50", "RUB", "completed", "ad_reward", "view-id", "ad:view-id").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	event := &models.RewardEvent{
		AccountID: 5,
		Amount:    mustDecimal(t, "50"),
		Currency:  "RUB",
		Method:    models.MethodAdReward,
		Comment:   "view-id",
		DedupeKey: "ad:view-id",
	}
	err := repo.CreateCompleted(context.Background(), event)
	require.ErrorIs(t, err, ErrDuplicateEvent)
	require.NoError(t, mock.ExpectationsWereMet())
}
