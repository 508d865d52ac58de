package session

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreEnterReplacesState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Enter(ctx, 1, State{
		Kind: KindAwaitingTextPrompt,
		Cost: decimal.NewFromInt(15),
	}))
	require.NoError(t, store.Enter(ctx, 1, State{
		Kind:      KindWatchingAd,
		AdID:      "ad-123",
		StartedAt: time.Now().UTC(),
	}))

	state, err := store.Current(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, KindWatchingAd, state.Kind)
	require.Equal(t, "ad-123", state.AdID)
}

func TestMemoryStoreChatsAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Enter(ctx, 1, State{Kind: KindAwaitingTextPrompt}))
	require.NoError(t, store.Enter(ctx, 2, State{Kind: KindAwaitingImagePrompt}))

	first, err := store.Current(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, KindAwaitingTextPrompt, first.Kind)

	second, err := store.Current(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, KindAwaitingImagePrompt, second.Kind)
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Enter(ctx, 1, State{Kind: KindAwaitingAudioPrompt}))
	require.NoError(t, store.Clear(ctx, 1))

	state, err := store.Current(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, state)

	// Clearing an absent session is a no-op.
	require.NoError(t, store.Clear(ctx, 1))
}

func TestMemoryStoreExpiresStaleSessions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Enter(ctx, 1, State{Kind: KindAwaitingTextPrompt}))

	now = now.Add(sessionTTL - time.Minute)
	state, err := store.Current(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, state)

	now = now.Add(time.Minute)
	state, err = store.Current(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, state)

	// Re-entering starts a fresh lifetime.
	require.NoError(t, store.Enter(ctx, 1, State{Kind: KindAwaitingImagePrompt}))
	state, err = store.Current(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, KindAwaitingImagePrompt, state.Kind)
}

func TestMemoryStoreCurrentReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Enter(ctx, 1, State{Kind: KindWatchingAd, AdID: "original"}))

	state, err := store.Current(ctx, 1)
	require.NoError(t, err)
	state.AdID = "mutated"

	again, err := store.Current(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "original", again.AdID)
}
