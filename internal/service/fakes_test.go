package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"genmarket-bot/internal/models"
	"genmarket-bot/internal/repository"
)

// In-memory stores mirroring the repository semantics: the conditional debit,
// the credit bound to a completed event and the terminal-status guard.

var (
	_ AccountStore = (*fakeAccountStore)(nil)
	_ OrderStore   = (*fakeOrderStore)(nil)
	_ RewardStore  = (*fakeRewardStore)(nil)
)

type fakeAccountStore struct {
	mu       sync.Mutex
	accounts map[int64]*models.Account
	nextID   int64
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[int64]*models.Account)}
}

func (f *fakeAccountStore) add(telegramID int64, balance decimal.Decimal) *models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	account := &models.Account{
		ID:         f.nextID,
		TelegramID: telegramID,
		Balance:    balance,
		CreatedAt:  time.Now().UTC(),
	}
	copied := *account
	f.accounts[account.ID] = &copied
	return account
}

func (f *fakeAccountStore) balance(id int64) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[id].Balance
}

func (f *fakeAccountStore) Ensure(_ context.Context, telegramID int64, username, firstName, lastName string, admin bool) (*models.Account, bool, error) {
	f.mu.Lock()
	for _, a := range f.accounts {
		if a.TelegramID == telegramID {
			a.Username = username
			a.FirstName = firstName
			a.LastName = lastName
			if admin {
				a.IsAdmin = true
			}
			copied := *a
			f.mu.Unlock()
			return &copied, false, nil
		}
	}
	f.mu.Unlock()
	account := f.add(telegramID, decimal.Zero)
	account.Username = username
	account.FirstName = firstName
	account.LastName = lastName
	account.IsAdmin = admin
	return account, true, nil
}

func (f *fakeAccountStore) FindByID(_ context.Context, id int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (f *fakeAccountStore) FindByTelegramID(_ context.Context, telegramID int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.TelegramID == telegramID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountStore) Debit(_ context.Context, accountID int64, amount decimal.Decimal) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[accountID]
	if !ok || account.Balance.LessThan(amount) {
		return false, nil
	}
	account.Balance = account.Balance.Sub(amount)
	return true, nil
}

func (f *fakeAccountStore) Credit(_ context.Context, accountID int64, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[accountID]
	if !ok {
		return errors.New("account not found")
	}
	account.Balance = account.Balance.Add(amount)
	return nil
}

func (f *fakeAccountStore) SetLastAdWatch(_ context.Context, accountID int64, t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if account, ok := f.accounts[accountID]; ok {
		ts := t
		account.LastAdWatchAt = &ts
	}
	return nil
}

func (f *fakeAccountStore) SetLastFreeTrial(_ context.Context, accountID int64, t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if account, ok := f.accounts[accountID]; ok {
		ts := t
		account.LastFreeTrialAt = &ts
	}
	return nil
}

func (f *fakeAccountStore) ListTelegramIDs(context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.accounts))
	for _, a := range f.accounts {
		ids = append(ids, a.TelegramID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeAccountStore) ListRecent(_ context.Context, limit int) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	accounts := make([]models.Account, 0, len(f.accounts))
	for _, a := range f.accounts {
		accounts = append(accounts, *a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID > accounts[j].ID })
	if len(accounts) > limit {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

func (f *fakeAccountStore) CountAll(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.accounts)), nil
}

func (f *fakeAccountStore) CountCreatedOnDay(_ context.Context, day time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, a := range f.accounts {
		if sameUTCDay(a.CreatedAt, day) {
			count++
		}
	}
	return count, nil
}

type fakeOrderStore struct {
	mu         sync.Mutex
	orders     []models.Order
	nextID     int64
	failCreate bool
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{}
}

func (f *fakeOrderStore) Create(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errors.New("insert failed")
	}
	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now().UTC()
	f.orders = append(f.orders, *order)
	return nil
}

func (f *fakeOrderStore) ListForAccount(_ context.Context, accountID int64, limit int) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for i := len(f.orders) - 1; i >= 0 && len(out) < limit; i-- {
		if f.orders[i].AccountID == accountID {
			out = append(out, f.orders[i])
		}
	}
	return out, nil
}

func (f *fakeOrderStore) CountAll(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.orders)), nil
}

func (f *fakeOrderStore) CountOnDay(_ context.Context, day time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, o := range f.orders {
		if sameUTCDay(o.CreatedAt, day) {
			count++
		}
	}
	return count, nil
}

type fakeRewardStore struct {
	mu       sync.Mutex
	events   map[int64]*models.RewardEvent
	nextID   int64
	accounts *fakeAccountStore
	now      func() time.Time
}

func newFakeRewardStore(accounts *fakeAccountStore) *fakeRewardStore {
	return &fakeRewardStore{
		events:   make(map[int64]*models.RewardEvent),
		accounts: accounts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (f *fakeRewardStore) Create(_ context.Context, event *models.RewardEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	event.ID = f.nextID
	event.Status = models.StatusPending
	event.CreatedAt = f.now()
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeRewardStore) CreateCompleted(ctx context.Context, event *models.RewardEvent) error {
	f.mu.Lock()
	if event.DedupeKey != "" {
		for _, e := range f.events {
			if e.AccountID == event.AccountID && e.DedupeKey == event.DedupeKey {
				f.mu.Unlock()
				return repository.ErrDuplicateEvent
			}
		}
	}
	f.nextID++
	event.ID = f.nextID
	event.Status = models.StatusCompleted
	event.CreatedAt = f.now()
	completed := f.now()
	event.CompletedAt = &completed
	copied := *event
	f.events[event.ID] = &copied
	f.mu.Unlock()
	return f.accounts.Credit(ctx, event.AccountID, event.Amount)
}

func (f *fakeRewardStore) FindByID(_ context.Context, id int64) (*models.RewardEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (f *fakeRewardStore) Complete(ctx context.Context, id int64, comment string) (*models.RewardEvent, error) {
	return f.transition(ctx, id, models.StatusCompleted, comment)
}

func (f *fakeRewardStore) Reject(ctx context.Context, id int64, comment string) (*models.RewardEvent, error) {
	return f.transition(ctx, id, models.StatusRejected, comment)
}

func (f *fakeRewardStore) transition(ctx context.Context, id int64, status models.RewardStatus, comment string) (*models.RewardEvent, error) {
	f.mu.Lock()
	event, ok := f.events[id]
	if !ok {
		f.mu.Unlock()
		return nil, repository.ErrEventNotFound
	}
	if event.Terminal() {
		f.mu.Unlock()
		return nil, repository.ErrEventSettled
	}
	event.Status = status
	if comment != "" {
		event.Comment = comment
	}
	if status == models.StatusCompleted {
		completed := f.now()
		event.CompletedAt = &completed
	}
	copied := *event
	f.mu.Unlock()
	if status == models.StatusCompleted {
		if err := f.accounts.Credit(ctx, event.AccountID, event.Amount); err != nil {
			return nil, err
		}
	}
	return &copied, nil
}

func (f *fakeRewardStore) ListByStatus(_ context.Context, status models.RewardStatus, limit int) ([]models.RewardEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RewardEvent
	for _, e := range f.events {
		if e.Status == status {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRewardStore) CountCompletedOnDay(_ context.Context, accountID int64, method models.RewardMethod, day time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, e := range f.events {
		if e.AccountID == accountID && e.Method == method && e.Status == models.StatusCompleted && sameUTCDay(e.CreatedAt, day) {
			count++
		}
	}
	return count, nil
}

func (f *fakeRewardStore) TotalsByMethodOnDay(_ context.Context, accountID int64, method models.RewardMethod, day time.Time) (int, decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count, sum := 0, decimal.Zero
	for _, e := range f.events {
		if e.AccountID == accountID && e.Method == method && e.Status == models.StatusCompleted && sameUTCDay(e.CreatedAt, day) {
			count++
			sum = sum.Add(e.Amount)
		}
	}
	return count, sum, nil
}

func (f *fakeRewardStore) TotalsByMethod(_ context.Context, accountID int64, method models.RewardMethod) (int, decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count, sum := 0, decimal.Zero
	for _, e := range f.events {
		if e.AccountID == accountID && e.Method == method && e.Status == models.StatusCompleted {
			count++
			sum = sum.Add(e.Amount)
		}
	}
	return count, sum, nil
}

func (f *fakeRewardStore) SumCompleted(context.Context) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for _, e := range f.events {
		if e.Status == models.StatusCompleted {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (f *fakeRewardStore) SumCompletedOnDay(_ context.Context, day time.Time) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for _, e := range f.events {
		if e.Status == models.StatusCompleted && e.CompletedAt != nil && sameUTCDay(*e.CompletedAt, day) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}
