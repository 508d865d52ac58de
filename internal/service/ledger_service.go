package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"genmarket-bot/internal/config"
	"genmarket-bot/internal/models"
	"genmarket-bot/internal/repository"
)

// LedgerService owns account lifecycle and the reward-event state machine:
// lazy account creation, pending top-ups, the exactly-once
// pending→completed/rejected transitions, admin credits and read-only
// listings for the admin surface.
type LedgerService struct {
	cfg      config.Config
	log      *slog.Logger
	accounts AccountStore
	orders   OrderStore
	rewards  RewardStore
	now      func() time.Time
}

func NewLedgerService(cfg config.Config, log *slog.Logger, accounts AccountStore, orders OrderStore, rewards RewardStore) *LedgerService {
	return &LedgerService{
		cfg:      cfg,
		log:      log,
		accounts: accounts,
		orders:   orders,
		rewards:  rewards,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ensure is the idempotent get-or-create keyed by telegram id. Accounts in
// the configured admin list are promoted on first contact.
func (s *LedgerService) Ensure(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.Account, bool, error) {
	account, created, err := s.accounts.Ensure(ctx, telegramID, username, firstName, lastName, s.cfg.IsAdminID(telegramID))
	if err != nil {
		return nil, false, fmt.Errorf("ensure account: %w", err)
	}
	if created {
		s.log.Info("account created", "telegram_id", telegramID)
	}
	return account, created, nil
}

// CreatePendingTopUp records a manually-reported payment awaiting admin
// confirmation. No balance change until the event completes.
func (s *LedgerService) CreatePendingTopUp(ctx context.Context, account *models.Account, amount decimal.Decimal) (*models.RewardEvent, error) {
	if amount.LessThan(s.cfg.MinPaymentAmount) || amount.GreaterThan(s.cfg.MaxPaymentAmount) {
		return nil, fmt.Errorf("%w: amount %s outside [%s, %s]", ErrInvalidRequest, amount, s.cfg.MinPaymentAmount, s.cfg.MaxPaymentAmount)
	}
	event := &models.RewardEvent{
		AccountID: account.ID,
		Amount:    amount,
		Currency:  s.cfg.Currency,
		Method:    models.MethodManual,
	}
	if err := s.rewards.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create top-up: %w", err)
	}
	return event, nil
}

// UpdateRewardStatus moves a pending event to completed (crediting the owner
// exactly once) or rejected. A terminal event is a no-op reported as
// ErrAlreadySettled; an unknown id as ErrNotFound.
func (s *LedgerService) UpdateRewardStatus(ctx context.Context, id int64, status models.RewardStatus, comment string) (*models.RewardEvent, error) {
	var event *models.RewardEvent
	var err error
	switch status {
	case models.StatusCompleted:
		event, err = s.rewards.Complete(ctx, id, comment)
	case models.StatusRejected:
		event, err = s.rewards.Reject(ctx, id, comment)
	default:
		return nil, fmt.Errorf("%w: status %q", ErrInvalidRequest, status)
	}
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return nil, ErrNotFound
	case errors.Is(err, repository.ErrEventSettled):
		return nil, ErrAlreadySettled
	case err != nil:
		return nil, fmt.Errorf("transition reward event: %w", err)
	}
	s.log.Info("reward event settled", "id", id, "status", status, "amount", event.Amount)
	return event, nil
}

// AdminCredit credits the account immediately, modeled as a RewardEvent
// created directly in completed status.
func (s *LedgerService) AdminCredit(ctx context.Context, telegramID int64, amount decimal.Decimal, comment string) (*models.Account, *models.RewardEvent, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	account, err := s.accounts.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, nil, fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return nil, nil, ErrNotFound
	}
	event := &models.RewardEvent{
		AccountID: account.ID,
		Amount:    amount,
		Currency:  s.cfg.Currency,
		Method:    models.MethodAdminAdd,
		Comment:   comment,
	}
	if err := s.rewards.CreateCompleted(ctx, event); err != nil {
		return nil, nil, fmt.Errorf("admin credit: %w", err)
	}
	account.Balance = account.Balance.Add(amount)
	s.log.Info("admin credit", "telegram_id", telegramID, "amount", amount)
	return account, event, nil
}

func (s *LedgerService) PendingEvents(ctx context.Context, limit int) ([]models.RewardEvent, error) {
	return s.rewards.ListByStatus(ctx, models.StatusPending, normalizeLimit(limit))
}

func (s *LedgerService) CompletedEvents(ctx context.Context, limit int) ([]models.RewardEvent, error) {
	return s.rewards.ListByStatus(ctx, models.StatusCompleted, normalizeLimit(limit))
}

func (s *LedgerService) EventByID(ctx context.Context, id int64) (*models.RewardEvent, error) {
	event, err := s.rewards.FindByID(ctx, id)
	if errors.Is(err, repository.ErrEventNotFound) {
		return nil, ErrNotFound
	}
	return event, err
}

func (s *LedgerService) AccountByID(ctx context.Context, id int64) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	return account, nil
}

func (s *LedgerService) OrdersFor(ctx context.Context, account *models.Account, limit int) ([]models.Order, error) {
	return s.orders.ListForAccount(ctx, account.ID, normalizeLimit(limit))
}

func (s *LedgerService) ListAccounts(ctx context.Context, limit int) ([]models.Account, error) {
	return s.accounts.ListRecent(ctx, normalizeLimit(limit))
}

func (s *LedgerService) ListTelegramIDs(ctx context.Context) ([]int64, error) {
	return s.accounts.ListTelegramIDs(ctx)
}

// Stats is the admin dashboard snapshot.
type Stats struct {
	Accounts      int64           `json:"accounts"`
	AccountsToday int64           `json:"accounts_today"`
	Orders        int64           `json:"orders"`
	OrdersToday   int64           `json:"orders_today"`
	CreditedTotal decimal.Decimal `json:"credited_total"`
	CreditedToday decimal.Decimal `json:"credited_today"`
}

func (s *LedgerService) Stats(ctx context.Context) (Stats, error) {
	now := s.now()
	var st Stats
	var err error
	if st.Accounts, err = s.accounts.CountAll(ctx); err != nil {
		return Stats{}, fmt.Errorf("count accounts: %w", err)
	}
	if st.AccountsToday, err = s.accounts.CountCreatedOnDay(ctx, now); err != nil {
		return Stats{}, fmt.Errorf("count accounts today: %w", err)
	}
	if st.Orders, err = s.orders.CountAll(ctx); err != nil {
		return Stats{}, fmt.Errorf("count orders: %w", err)
	}
	if st.OrdersToday, err = s.orders.CountOnDay(ctx, now); err != nil {
		return Stats{}, fmt.Errorf("count orders today: %w", err)
	}
	if st.CreditedTotal, err = s.rewards.SumCompleted(ctx); err != nil {
		return Stats{}, fmt.Errorf("sum credited: %w", err)
	}
	if st.CreditedToday, err = s.rewards.SumCompletedOnDay(ctx, now); err != nil {
		return Stats{}, fmt.Errorf("sum credited today: %w", err)
	}
	return st, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
