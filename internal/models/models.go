package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderCategory string

const (
	CategoryText  OrderCategory = "text"
	CategoryImage OrderCategory = "image"
	CategoryAudio OrderCategory = "audio"
)

type RewardMethod string

const (
	MethodAdReward   RewardMethod = "ad_reward"
	MethodDailyBonus RewardMethod = "daily_bonus"
	MethodFreeTrial  RewardMethod = "free_trial"
	MethodAdminAdd   RewardMethod = "admin_add"
	MethodManual     RewardMethod = "manual"
)

type RewardStatus string

const (
	StatusPending   RewardStatus = "pending"
	StatusCompleted RewardStatus = "completed"
	StatusRejected  RewardStatus = "rejected"
)

// Account is the persisted identity and balance record for one Telegram user.
// Balance is mutated only through the ledger repositories: a conditional debit
// for spends and a credit bound to exactly one completed RewardEvent.
type Account struct {
	ID              int64
	TelegramID      int64
	Username        string
	FirstName       string
	LastName        string
	Balance         decimal.Decimal
	IsAdmin         bool
	LastAdWatchAt   *time.Time
	LastFreeTrialAt *time.Time
	CreatedAt       time.Time
	LastActiveAt    time.Time
}

// Order is an immutable record of one paid, already-debited generation.
type Order struct {
	ID        int64
	AccountID int64
	Category  OrderCategory
	Prompt    string
	Result    string
	Cost      decimal.Decimal
	CreatedAt time.Time
}

// RewardEvent records every balance-increasing (or rejected) credit:
// ad rewards, daily bonuses, free trials, admin top-ups and manual payments.
// DedupeKey, when set, is unique per account at the database level; flows
// that must credit at most once (one ad view, one bonus or trial per day)
// put their idempotency key here.
type RewardEvent struct {
	ID          int64
	AccountID   int64
	Amount      decimal.Decimal
	Currency    string
	Status      RewardStatus
	Method      RewardMethod
	Comment     string
	DedupeKey   string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Terminal reports whether the event can no longer change status.
func (e *RewardEvent) Terminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusRejected
}
