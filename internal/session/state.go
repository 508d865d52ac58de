package session

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Kind names what the bot is waiting for from a chat.
type Kind string

const (
	KindAwaitingTextPrompt  Kind = "awaiting-text-prompt"
	KindAwaitingImagePrompt Kind = "awaiting-image-prompt"
	KindAwaitingAudioPrompt Kind = "awaiting-audio-prompt"
	KindWatchingAd          Kind = "watching-ad"
)

// State is one chat's pending step plus everything settlement needs. Prices
// and the reward are snapshotted here at entry, so the values agreed with the
// user survive config changes until the step finishes.
type State struct {
	Kind         Kind            `json:"kind"`
	Cost         decimal.Decimal `json:"cost"`
	LongCost     decimal.Decimal `json:"long_cost,omitempty"`
	AdID         string          `json:"ad_id,omitempty"`
	Reward       decimal.Decimal `json:"reward,omitempty"`
	WatchSeconds int             `json:"watch_seconds,omitempty"`
	StartedAt    time.Time       `json:"started_at,omitempty"`
	EnteredAt    time.Time       `json:"entered_at"`
}

// Store keeps at most one State per chat. Entering a new state replaces the
// old one unconditionally.
type Store interface {
	Enter(ctx context.Context, chatID int64, state State) error
	Current(ctx context.Context, chatID int64) (*State, error)
	Clear(ctx context.Context, chatID int64) error
}

// sessionTTL bounds how long a pending step stays answerable. Both stores
// honor it, so switching between them does not change session lifetime.
const sessionTTL = time.Hour

// MemoryStore keeps sessions in process memory. Good for a single-instance
// deployment; lost on restart, which only costs the user a retried tap.
// Stale entries are dropped lazily on the next read.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	state   State
	savedAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]memoryEntry),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Enter(_ context.Context, chatID int64, state State) error {
	m.mu.Lock()
	m.sessions[chatID] = memoryEntry{state: state, savedAt: m.now()}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Current(_ context.Context, chatID int64) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[chatID]
	if !ok {
		return nil, nil
	}
	if m.now().Sub(entry.savedAt) >= sessionTTL {
		delete(m.sessions, chatID)
		return nil, nil
	}
	state := entry.state
	return &state, nil
}

func (m *MemoryStore) Clear(_ context.Context, chatID int64) error {
	m.mu.Lock()
	delete(m.sessions, chatID)
	m.mu.Unlock()
	return nil
}
