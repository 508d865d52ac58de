package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"genmarket-bot/internal/config"
	"genmarket-bot/internal/models"
	"genmarket-bot/internal/repository"
)

// RewardService drives the balance-increasing flows: the ad-watch state
// machine, the daily bonus and the free trial. Every credit lands as a
// completed RewardEvent, so the ledger stays the single source of truth.
type RewardService struct {
	cfg      config.Config
	log      *slog.Logger
	accounts AccountStore
	rewards  RewardStore
	locks    *AccountLocks
	now      func() time.Time
}

func NewRewardService(cfg config.Config, log *slog.Logger, accounts AccountStore, rewards RewardStore, locks *AccountLocks) *RewardService {
	return &RewardService{
		cfg:      cfg,
		log:      log,
		accounts: accounts,
		rewards:  rewards,
		locks:    locks,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AdView is a started-but-unconfirmed ad watch. The id travels through the
// session and must come back unchanged before any credit happens.
type AdView struct {
	ID        string
	StartedAt time.Time
	Seconds   int
	Reward    decimal.Decimal
}

// StartAdView opens a new ad watch if the account is under the daily cap and
// outside the cooldown window. Nothing is credited here.
func (s *RewardService) StartAdView(ctx context.Context, account *models.Account) (*AdView, error) {
	now := s.now()
	if err := s.checkAdLimits(ctx, account, now); err != nil {
		return nil, err
	}
	view := &AdView{
		ID:        uuid.NewString(),
		StartedAt: now,
		Seconds:   s.cfg.AdWatchSeconds,
		Reward:    s.cfg.AdRewardAmount,
	}
	s.log.Info("ad view started", "account_id", account.ID, "ad_id", view.ID)
	return view, nil
}

// ConfirmAdView settles an ad watch. The presented id must match the stored
// one and the full watch duration must have elapsed, otherwise the view is
// discarded without credit. The daily cap is re-checked at confirmation so a
// view started before midnight cannot overflow the next day's allowance.
// The cap re-check and the credit run under the account lock, and the event
// carries the view id as its dedupe key, so one view credits at most once
// even when confirmations overlap or arrive on different instances.
func (s *RewardService) ConfirmAdView(ctx context.Context, account *models.Account, stored *AdView, presentedID string) (*models.RewardEvent, error) {
	if stored == nil || presentedID == "" || stored.ID != presentedID {
		return nil, ErrAdMismatch
	}
	now := s.now()
	if elapsed := now.Sub(stored.StartedAt); elapsed < time.Duration(stored.Seconds)*time.Second {
		return nil, fmt.Errorf("%w: %s elapsed", ErrAdNotElapsed, elapsed.Round(time.Second))
	}

	lock := s.locks.get(account.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.checkAdLimits(ctx, account, now); err != nil {
		return nil, err
	}

	event := &models.RewardEvent{
		AccountID: account.ID,
		Amount:    stored.Reward,
		Currency:  s.cfg.Currency,
		Method:    models.MethodAdReward,
		Comment:   stored.ID,
		DedupeKey: "ad:" + stored.ID,
	}
	if err := s.rewards.CreateCompleted(ctx, event); err != nil {
		if errors.Is(err, repository.ErrDuplicateEvent) {
			return nil, fmt.Errorf("%w: view already credited", ErrAdMismatch)
		}
		return nil, fmt.Errorf("credit ad reward: %w", err)
	}
	if err := s.accounts.SetLastAdWatch(ctx, account.ID, now); err != nil {
		s.log.Error("record last ad watch", "account_id", account.ID, "error", err)
	}
	account.Balance = account.Balance.Add(stored.Reward)
	account.LastAdWatchAt = &now
	s.log.Info("ad reward credited", "account_id", account.ID, "ad_id", stored.ID, "amount", stored.Reward)
	return event, nil
}

func (s *RewardService) checkAdLimits(ctx context.Context, account *models.Account, now time.Time) error {
	count, err := s.rewards.CountCompletedOnDay(ctx, account.ID, models.MethodAdReward, now)
	if err != nil {
		return fmt.Errorf("count ad rewards: %w", err)
	}
	if count >= s.cfg.MaxAdsPerDay {
		return ErrDailyLimitReached
	}
	if s.cfg.AdCooldown > 0 && account.LastAdWatchAt != nil {
		if wait := s.cfg.AdCooldown - now.Sub(*account.LastAdWatchAt); wait > 0 {
			return fmt.Errorf("%w: %s left", ErrCooldownActive, wait.Round(time.Second))
		}
	}
	return nil
}

// ClaimDailyBonus credits the bonus once per UTC day to accounts that watched
// at least the threshold number of ads that day. The checks and the credit
// run under the account lock; the per-day dedupe key keeps concurrent claims
// from other instances to a single bonus.
func (s *RewardService) ClaimDailyBonus(ctx context.Context, account *models.Account) (*models.RewardEvent, error) {
	now := s.now()

	lock := s.locks.get(account.ID)
	lock.Lock()
	defer lock.Unlock()

	watched, err := s.rewards.CountCompletedOnDay(ctx, account.ID, models.MethodAdReward, now)
	if err != nil {
		return nil, fmt.Errorf("count ad rewards: %w", err)
	}
	if watched < s.cfg.DailyBonusThreshold {
		return nil, fmt.Errorf("%w: %d of %d ads watched", ErrBonusNotEarned, watched, s.cfg.DailyBonusThreshold)
	}
	claimed, err := s.rewards.CountCompletedOnDay(ctx, account.ID, models.MethodDailyBonus, now)
	if err != nil {
		return nil, fmt.Errorf("count daily bonuses: %w", err)
	}
	if claimed > 0 {
		return nil, ErrBonusAlreadyClaimed
	}

	event := &models.RewardEvent{
		AccountID: account.ID,
		Amount:    s.cfg.DailyBonusAmount,
		Currency:  s.cfg.Currency,
		Method:    models.MethodDailyBonus,
		DedupeKey: "daily_bonus:" + now.Format("2006-01-02"),
	}
	if err := s.rewards.CreateCompleted(ctx, event); err != nil {
		if errors.Is(err, repository.ErrDuplicateEvent) {
			return nil, ErrBonusAlreadyClaimed
		}
		return nil, fmt.Errorf("credit daily bonus: %w", err)
	}
	account.Balance = account.Balance.Add(event.Amount)
	s.log.Info("daily bonus credited", "account_id", account.ID, "amount", event.Amount)
	return event, nil
}

// GrantFreeTrial credits the small try-it-out amount once per UTC day. The
// per-day dedupe key backs the once-per-day invariant even when the caller's
// lastFreeTrialAt snapshot is stale.
func (s *RewardService) GrantFreeTrial(ctx context.Context, account *models.Account) (*models.RewardEvent, error) {
	now := s.now()

	lock := s.locks.get(account.ID)
	lock.Lock()
	defer lock.Unlock()

	if account.LastFreeTrialAt != nil && sameUTCDay(*account.LastFreeTrialAt, now) {
		return nil, ErrFreeTrialUsed
	}

	event := &models.RewardEvent{
		AccountID: account.ID,
		Amount:    s.cfg.FreeTrialAmount,
		Currency:  s.cfg.Currency,
		Method:    models.MethodFreeTrial,
		DedupeKey: "free_trial:" + now.Format("2006-01-02"),
	}
	if err := s.rewards.CreateCompleted(ctx, event); err != nil {
		if errors.Is(err, repository.ErrDuplicateEvent) {
			return nil, ErrFreeTrialUsed
		}
		return nil, fmt.Errorf("credit free trial: %w", err)
	}
	if err := s.accounts.SetLastFreeTrial(ctx, account.ID, now); err != nil {
		s.log.Error("record last free trial", "account_id", account.ID, "error", err)
	}
	account.Balance = account.Balance.Add(event.Amount)
	account.LastFreeTrialAt = &now
	s.log.Info("free trial credited", "account_id", account.ID, "amount", event.Amount)
	return event, nil
}

// AdStats is the per-account ad earnings summary shown in the bot.
type AdStats struct {
	TodayCount  int
	TodayAmount decimal.Decimal
	TotalCount  int
	TotalAmount decimal.Decimal
	DailyLimit  int
}

func (s *RewardService) AdStats(ctx context.Context, account *models.Account) (AdStats, error) {
	now := s.now()
	todayCount, todayAmount, err := s.rewards.TotalsByMethodOnDay(ctx, account.ID, models.MethodAdReward, now)
	if err != nil {
		return AdStats{}, fmt.Errorf("ad totals today: %w", err)
	}
	totalCount, totalAmount, err := s.rewards.TotalsByMethod(ctx, account.ID, models.MethodAdReward)
	if err != nil {
		return AdStats{}, fmt.Errorf("ad totals: %w", err)
	}
	return AdStats{
		TodayCount:  todayCount,
		TodayAmount: todayAmount,
		TotalCount:  totalCount,
		TotalAmount: totalAmount,
		DailyLimit:  s.cfg.MaxAdsPerDay,
	}, nil
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
