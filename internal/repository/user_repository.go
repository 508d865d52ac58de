package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"genmarket-bot/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) DB() *sql.DB {
	return r.db
}

const accountColumns = `id, telegram_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''), balance, is_admin, last_ad_watch_at, last_free_trial_at, created_at, last_active_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	var a models.Account
	var admin int
	var lastAd, lastTrial sql.NullTime
	if err := row.Scan(&a.ID, &a.TelegramID, &a.Username, &a.FirstName, &a.LastName, &a.Balance, &admin, &lastAd, &lastTrial, &a.CreatedAt, &a.LastActiveAt); err != nil {
		return nil, err
	}
	a.IsAdmin = admin != 0
	if lastAd.Valid {
		t := lastAd.Time
		a.LastAdWatchAt = &t
	}
	if lastTrial.Valid {
		t := lastTrial.Time
		a.LastFreeTrialAt = &t
	}
	return &a, nil
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE telegram_id = ?`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return account, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return account, nil
}

func (r *UserRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	const query = `
INSERT INTO accounts (telegram_id, username, first_name, last_name, balance, is_admin)
VALUES (?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), 0, ?)`
	admin := 0
	if account.IsAdmin {
		admin = 1
	}
	res, err := r.db.ExecContext(ctx, query, account.TelegramID, account.Username, account.FirstName, account.LastName, admin)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	account.ID = id
	account.Balance = decimal.Zero
	return account, nil
}

// UpdateProfile refreshes display metadata and last_active. Balance is never
// touched here.
func (r *UserRepository) UpdateProfile(ctx context.Context, accountID int64, username, firstName, lastName string) error {
	const query = `
UPDATE accounts SET username = NULLIF(?, ''), first_name = NULLIF(?, ''), last_name = NULLIF(?, ''), last_active_at = NOW()
WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, username, firstName, lastName, accountID); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (r *UserRepository) SetAdmin(ctx context.Context, accountID int64, admin bool) error {
	value := 0
	if admin {
		value = 1
	}
	const query = `UPDATE accounts SET is_admin = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, value, accountID); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	return nil
}

// Ensure is the idempotent get-or-create keyed by telegram id. Repeat calls
// refresh the profile and last_active; the balance of an existing account is
// never overwritten.
func (r *UserRepository) Ensure(ctx context.Context, telegramID int64, username, firstName, lastName string, admin bool) (*models.Account, bool, error) {
	account, err := r.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, false, err
	}
	if account != nil {
		if err := r.UpdateProfile(ctx, account.ID, username, firstName, lastName); err != nil {
			return nil, false, err
		}
		if admin && !account.IsAdmin {
			if err := r.SetAdmin(ctx, account.ID, true); err != nil {
				return nil, false, err
			}
			account.IsAdmin = true
		}
		account.Username = username
		account.FirstName = firstName
		account.LastName = lastName
		return account, false, nil
	}
	created, err := r.Create(ctx, &models.Account{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
		IsAdmin:    admin,
	})
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// Debit atomically checks and decrements the balance. It reports false when
// the balance is below amount; the row is untouched in that case. The WHERE
// guard is what makes two overlapping spends against a stale balance
// impossible.
func (r *UserRepository) Debit(ctx context.Context, accountID int64, amount decimal.Decimal) (bool, error) {
	const query = `
UPDATE accounts SET balance = balance - ?
WHERE id = ? AND balance >= ?`
	res, err := r.db.ExecContext(ctx, query, amount, accountID, amount)
	if err != nil {
		return false, fmt.Errorf("debit account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("debit rows affected: %w", err)
	}
	return affected > 0, nil
}

// Credit increments the balance unconditionally. Callers are responsible for
// binding the credit to exactly one reward event (see RewardRepository) or a
// compensating refund.
func (r *UserRepository) Credit(ctx context.Context, accountID int64, amount decimal.Decimal) error {
	const query = `UPDATE accounts SET balance = balance + ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, amount, accountID)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *UserRepository) SetLastAdWatch(ctx context.Context, accountID int64, t time.Time) error {
	const query = `UPDATE accounts SET last_ad_watch_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, t.UTC(), accountID); err != nil {
		return fmt.Errorf("set last ad watch: %w", err)
	}
	return nil
}

func (r *UserRepository) SetLastFreeTrial(ctx context.Context, accountID int64, t time.Time) error {
	const query = `UPDATE accounts SET last_free_trial_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, t.UTC(), accountID); err != nil {
		return fmt.Errorf("set last free trial: %w", err)
	}
	return nil
}

func (r *UserRepository) ListTelegramIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT telegram_id FROM accounts`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list telegram ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan telegram id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *UserRepository) ListRecent(ctx context.Context, limit int) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

func (r *UserRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return count, nil
}

func (r *UserRepository) CountCreatedOnDay(ctx context.Context, day time.Time) (int64, error) {
	start, end := dayBoundsUTC(day)
	const query = `SELECT COUNT(*) FROM accounts WHERE created_at >= ? AND created_at < ?`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("count accounts for day: %w", err)
	}
	return count, nil
}
