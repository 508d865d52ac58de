package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"genmarket-bot/internal/models"
)

// SpendService holds every debit behind a per-account lock plus a conditional
// UPDATE, so two concurrent spends against one balance can never both pass.
type SpendService struct {
	log      *slog.Logger
	accounts AccountStore
	orders   OrderStore
	locks    *AccountLocks
}

func NewSpendService(log *slog.Logger, accounts AccountStore, orders OrderStore, locks *AccountLocks) *SpendService {
	return &SpendService{
		log:      log,
		accounts: accounts,
		orders:   orders,
		locks:    locks,
	}
}

// Authorization is a debit that already happened and is waiting to be settled
// into an order or released back.
type Authorization struct {
	AccountID int64
	Cost      decimal.Decimal
}

// Authorize atomically debits cost from the account. The debit either fully
// applies or the balance is untouched; a short balance yields
// ErrInsufficientFunds.
func (s *SpendService) Authorize(ctx context.Context, account *models.Account, cost decimal.Decimal) (*Authorization, error) {
	if cost.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: cost %s", ErrInvalidCost, cost)
	}

	lock := s.locks.get(account.ID)
	lock.Lock()
	defer lock.Unlock()

	ok, err := s.accounts.Debit(ctx, account.ID, cost)
	if err != nil {
		return nil, fmt.Errorf("debit account: %w", err)
	}
	if !ok {
		return nil, ErrInsufficientFunds
	}
	account.Balance = account.Balance.Sub(cost)
	s.log.Info("spend authorized", "account_id", account.ID, "cost", cost)
	return &Authorization{AccountID: account.ID, Cost: cost}, nil
}

// storedPromptMaxChars bounds the prompt text kept on an order row.
const storedPromptMaxChars = 500

// Settle records the completed order for an authorized debit. If the order
// cannot be written, the debit is compensated so the money is not lost.
func (s *SpendService) Settle(ctx context.Context, auth *Authorization, category models.OrderCategory, prompt, result string) (*models.Order, error) {
	if runes := []rune(prompt); len(runes) > storedPromptMaxChars {
		prompt = string(runes[:storedPromptMaxChars])
	}
	order := &models.Order{
		AccountID: auth.AccountID,
		Category:  category,
		Prompt:    prompt,
		Result:    result,
		Cost:      auth.Cost,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		if refundErr := s.accounts.Credit(ctx, auth.AccountID, auth.Cost); refundErr != nil {
			s.log.Error("refund after failed order write", "account_id", auth.AccountID, "cost", auth.Cost, "error", refundErr)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// Release refunds an authorization whose work never completed.
func (s *SpendService) Release(ctx context.Context, auth *Authorization) error {
	if err := s.accounts.Credit(ctx, auth.AccountID, auth.Cost); err != nil {
		return fmt.Errorf("release authorization: %w", err)
	}
	s.log.Info("spend released", "account_id", auth.AccountID, "cost", auth.Cost)
	return nil
}
