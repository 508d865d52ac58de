package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"genmarket-bot/internal/models"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the immutable spend record. The caller must already have
// applied the matching debit.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	const query = `
INSERT INTO orders (account_id, category, prompt, result, cost)
VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, order.AccountID, order.Category, order.Prompt, order.Result, order.Cost)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	order.ID = id
	return nil
}

func (r *OrderRepository) ListForAccount(ctx context.Context, accountID int64, limit int) ([]models.Order, error) {
	const query = `
SELECT id, account_id, category, COALESCE(prompt, ''), COALESCE(result, ''), cost, created_at
FROM orders WHERE account_id = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.AccountID, &o.Category, &o.Prompt, &o.Result, &o.Cost, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

func (r *OrderRepository) CountOnDay(ctx context.Context, day time.Time) (int64, error) {
	start, end := dayBoundsUTC(day)
	const query = `SELECT COUNT(*) FROM orders WHERE created_at >= ? AND created_at < ?`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders for day: %w", err)
	}
	return count, nil
}
