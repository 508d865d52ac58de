package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"genmarket-bot/internal/models"
)

// AccountStore is the slice of the ledger the services need for accounts.
// Satisfied by repository.UserRepository.
type AccountStore interface {
	Ensure(ctx context.Context, telegramID int64, username, firstName, lastName string, admin bool) (*models.Account, bool, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (*models.Account, error)
	Debit(ctx context.Context, accountID int64, amount decimal.Decimal) (bool, error)
	Credit(ctx context.Context, accountID int64, amount decimal.Decimal) error
	SetLastAdWatch(ctx context.Context, accountID int64, t time.Time) error
	SetLastFreeTrial(ctx context.Context, accountID int64, t time.Time) error
	ListTelegramIDs(ctx context.Context) ([]int64, error)
	ListRecent(ctx context.Context, limit int) ([]models.Account, error)
	CountAll(ctx context.Context) (int64, error)
	CountCreatedOnDay(ctx context.Context, day time.Time) (int64, error)
}

// OrderStore is satisfied by repository.OrderRepository.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	ListForAccount(ctx context.Context, accountID int64, limit int) ([]models.Order, error)
	CountAll(ctx context.Context) (int64, error)
	CountOnDay(ctx context.Context, day time.Time) (int64, error)
}

// RewardStore is satisfied by repository.RewardRepository.
type RewardStore interface {
	Create(ctx context.Context, event *models.RewardEvent) error
	CreateCompleted(ctx context.Context, event *models.RewardEvent) error
	FindByID(ctx context.Context, id int64) (*models.RewardEvent, error)
	Complete(ctx context.Context, id int64, comment string) (*models.RewardEvent, error)
	Reject(ctx context.Context, id int64, comment string) (*models.RewardEvent, error)
	ListByStatus(ctx context.Context, status models.RewardStatus, limit int) ([]models.RewardEvent, error)
	CountCompletedOnDay(ctx context.Context, accountID int64, method models.RewardMethod, day time.Time) (int, error)
	TotalsByMethodOnDay(ctx context.Context, accountID int64, method models.RewardMethod, day time.Time) (int, decimal.Decimal, error)
	TotalsByMethod(ctx context.Context, accountID int64, method models.RewardMethod) (int, decimal.Decimal, error)
	SumCompleted(ctx context.Context) (decimal.Decimal, error)
	SumCompletedOnDay(ctx context.Context, day time.Time) (decimal.Decimal, error)
}
