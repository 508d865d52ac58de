package service

import "sync"

// AccountLocks hands out one mutex per account id so balance-affecting
// multi-step sequences (check-and-debit followed by order recording, or a
// reward limit check followed by a credit) are serialized per account.
// A single instance is shared by every service that touches balances.
// Different accounts never contend. Mutexes are kept for the process
// lifetime; the map grows with the number of active accounts, which is
// bounded and small per process.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *AccountLocks) get(accountID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	return m
}
