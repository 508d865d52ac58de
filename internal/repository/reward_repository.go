package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"genmarket-bot/internal/models"
)

var (
	// ErrEventNotFound is returned for an unknown reward event id.
	ErrEventNotFound = errors.New("reward event not found")
	// ErrEventSettled is returned when a terminal event is transitioned again.
	ErrEventSettled = errors.New("reward event already settled")
	// ErrDuplicateEvent is returned when an event with the same dedupe key
	// already exists for the account. The caller's credit never happened.
	ErrDuplicateEvent = errors.New("reward event already recorded")
)

type RewardRepository struct {
	db *sql.DB
}

func NewRewardRepository(db *sql.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

const rewardColumns = `id, account_id, amount, currency, status, method, COALESCE(comment, ''), created_at, completed_at`

func scanRewardEvent(row interface{ Scan(...any) error }) (*models.RewardEvent, error) {
	var e models.RewardEvent
	var completedAt sql.NullTime
	if err := row.Scan(&e.ID, &e.AccountID, &e.Amount, &e.Currency, &e.Status, &e.Method, &e.Comment, &e.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		e.CompletedAt = &t
	}
	return &e, nil
}

// Create inserts a pending event. No balance change happens here.
func (r *RewardRepository) Create(ctx context.Context, event *models.RewardEvent) error {
	const query = `
INSERT INTO reward_events (account_id, amount, currency, status, method, comment)
VALUES (?, ?, ?, ?, ?, NULLIF(?, ''))`
	res, err := r.db.ExecContext(ctx, query, event.AccountID, event.Amount, event.Currency, models.StatusPending, event.Method, event.Comment)
	if err != nil {
		return fmt.Errorf("insert reward event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	event.ID = id
	event.Status = models.StatusPending
	return nil
}

// CreateCompleted inserts an event directly in completed status and credits
// the account in the same transaction. This is the single path where creation
// and completion coincide (ad rewards, bonuses, free trials, admin top-ups);
// the event row and the credit still commit or roll back together, so the
// "exactly one credit per event" invariant holds. A dedupe key that already
// exists for the account hits the unique index and nothing is written; the
// caller sees ErrDuplicateEvent.
func (r *RewardRepository) CreateCompleted(ctx context.Context, event *models.RewardEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const insert = `
INSERT INTO reward_events (account_id, amount, currency, status, method, comment, dedupe_key, completed_at)
VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NOW())`
	res, err := tx.ExecContext(ctx, insert, event.AccountID, event.Amount, event.Currency, models.StatusCompleted, event.Method, event.Comment, event.DedupeKey)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: key %s", ErrDuplicateEvent, event.DedupeKey)
		}
		return fmt.Errorf("insert reward event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	const credit = `UPDATE accounts SET balance = balance + ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, credit, event.Amount, event.AccountID); err != nil {
		return fmt.Errorf("credit account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	event.ID = id
	event.Status = models.StatusCompleted
	now := time.Now().UTC()
	event.CompletedAt = &now
	return nil
}

// isDuplicateKey reports MySQL error 1062 (ER_DUP_ENTRY).
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

func (r *RewardRepository) FindByID(ctx context.Context, id int64) (*models.RewardEvent, error) {
	query := `SELECT ` + rewardColumns + ` FROM reward_events WHERE id = ?`
	event, err := scanRewardEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("scan reward event: %w", err)
	}
	return event, nil
}

// Complete transitions a pending event to completed and credits the owning
// account, all inside one transaction. The SELECT ... FOR UPDATE serializes
// concurrent transitions of the same event; a terminal event is left
// untouched and reported with ErrEventSettled.
func (r *RewardRepository) Complete(ctx context.Context, id int64, comment string) (*models.RewardEvent, error) {
	return r.transition(ctx, id, models.StatusCompleted, comment)
}

// Reject transitions a pending event to rejected with no balance change.
func (r *RewardRepository) Reject(ctx context.Context, id int64, comment string) (*models.RewardEvent, error) {
	return r.transition(ctx, id, models.StatusRejected, comment)
}

func (r *RewardRepository) transition(ctx context.Context, id int64, status models.RewardStatus, comment string) (*models.RewardEvent, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + rewardColumns + ` FROM reward_events WHERE id = ? FOR UPDATE`
	event, err := scanRewardEvent(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("scan reward event: %w", err)
	}
	if event.Terminal() {
		return nil, ErrEventSettled
	}

	if status == models.StatusCompleted {
		const update = `UPDATE reward_events SET status = ?, comment = COALESCE(NULLIF(?, ''), comment), completed_at = NOW() WHERE id = ?`
		if _, err := tx.ExecContext(ctx, update, status, comment, id); err != nil {
			return nil, fmt.Errorf("update reward event: %w", err)
		}
		const credit = `UPDATE accounts SET balance = balance + ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, credit, event.Amount, event.AccountID); err != nil {
			return nil, fmt.Errorf("credit account: %w", err)
		}
		now := time.Now().UTC()
		event.CompletedAt = &now
	} else {
		const update = `UPDATE reward_events SET status = ?, comment = COALESCE(NULLIF(?, ''), comment) WHERE id = ?`
		if _, err := tx.ExecContext(ctx, update, status, comment, id); err != nil {
			return nil, fmt.Errorf("update reward event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	event.Status = status
	if comment != "" {
		event.Comment = comment
	}
	return event, nil
}

func (r *RewardRepository) ListByStatus(ctx context.Context, status models.RewardStatus, limit int) ([]models.RewardEvent, error) {
	order := "created_at DESC"
	if status == models.StatusCompleted {
		order = "completed_at DESC"
	}
	query := `SELECT ` + rewardColumns + ` FROM reward_events WHERE status = ? ORDER BY ` + order + ` LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list reward events: %w", err)
	}
	defer rows.Close()

	var events []models.RewardEvent
	for rows.Next() {
		event, err := scanRewardEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// CountCompletedOnDay counts completed events of the given method whose
// created_at falls on the UTC calendar day of day.
func (r *RewardRepository) CountCompletedOnDay(ctx context.Context, accountID int64, method models.RewardMethod, day time.Time) (int, error) {
	start, end := dayBoundsUTC(day)
	const query = `
SELECT COUNT(*) FROM reward_events
WHERE account_id = ? AND method = ? AND status = ? AND created_at >= ? AND created_at < ?`
	var count int
	if err := r.db.QueryRowContext(ctx, query, accountID, method, models.StatusCompleted, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reward events for day: %w", err)
	}
	return count, nil
}

// TotalsByMethodOnDay returns the count and sum of completed events of one
// method for the UTC day of day.
func (r *RewardRepository) TotalsByMethodOnDay(ctx context.Context, accountID int64, method models.RewardMethod, day time.Time) (int, decimal.Decimal, error) {
	start, end := dayBoundsUTC(day)
	const query = `
SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM reward_events
WHERE account_id = ? AND method = ? AND status = ? AND created_at >= ? AND created_at < ?`
	var count int
	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, accountID, method, models.StatusCompleted, start, end).Scan(&count, &sum); err != nil {
		return 0, decimal.Zero, fmt.Errorf("reward totals for day: %w", err)
	}
	return count, sum, nil
}

// TotalsByMethod returns the all-time count and sum of completed events of
// one method for the account.
func (r *RewardRepository) TotalsByMethod(ctx context.Context, accountID int64, method models.RewardMethod) (int, decimal.Decimal, error) {
	const query = `
SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM reward_events
WHERE account_id = ? AND method = ? AND status = ?`
	var count int
	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, accountID, method, models.StatusCompleted).Scan(&count, &sum); err != nil {
		return 0, decimal.Zero, fmt.Errorf("reward totals: %w", err)
	}
	return count, sum, nil
}

func (r *RewardRepository) SumCompleted(ctx context.Context) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM reward_events WHERE status = ?`
	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, models.StatusCompleted).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum completed events: %w", err)
	}
	return sum, nil
}

func (r *RewardRepository) SumCompletedOnDay(ctx context.Context, day time.Time) (decimal.Decimal, error) {
	start, end := dayBoundsUTC(day)
	const query = `
SELECT COALESCE(SUM(amount), 0) FROM reward_events
WHERE status = ? AND completed_at >= ? AND completed_at < ?`
	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, models.StatusCompleted, start, end).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum completed events for day: %w", err)
	}
	return sum, nil
}
