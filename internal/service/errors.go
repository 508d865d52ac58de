package service

import "errors"

// Domain failure kinds. Call sites branch with errors.Is; anything else is an
// infrastructure error to be logged and reported generically.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidCost         = errors.New("cost must be positive")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrNotFound            = errors.New("not found")
	ErrAlreadySettled      = errors.New("reward event already settled")
	ErrAdMismatch          = errors.New("ad id does not match the active view")
	ErrAdNotElapsed        = errors.New("required watch time has not elapsed")
	ErrDailyLimitReached   = errors.New("daily ad view limit reached")
	ErrCooldownActive      = errors.New("ad view cooldown has not elapsed")
	ErrBonusNotEarned      = errors.New("daily bonus threshold not reached")
	ErrBonusAlreadyClaimed = errors.New("daily bonus already claimed today")
	ErrFreeTrialUsed       = errors.New("free trial already used today")
	ErrUpstreamUnavailable = errors.New("generation upstream unavailable")
)
