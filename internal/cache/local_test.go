package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreStreak(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	store := NewLocalStore()
	store.now = func() time.Time { return now }

	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetStreak(ctx, "u1", today, 4, time.Hour))

	streak, ok, err := store.GetStreak(ctx, "u1", today)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, streak)

	_, ok, _ = store.GetStreak(ctx, "u1", today.AddDate(0, 0, 1))
	assert.False(t, ok, "a streak computed for another day is a miss")

	now = now.Add(2 * time.Hour)
	_, ok, _ = store.GetStreak(ctx, "u1", today)
	assert.False(t, ok, "expired")

	require.NoError(t, store.SetStreak(ctx, "u1", today, 4, time.Hour))
	require.NoError(t, store.InvalidateStreak(ctx, "u1"))
	_, ok, _ = store.GetStreak(ctx, "u1", today)
	assert.False(t, ok)
}

func TestLocalStoreRevocation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	store := NewLocalStore()
	store.now = func() time.Time { return now }

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", now.Add(time.Hour)))
	revoked, _ = store.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)

	now = now.Add(time.Hour)
	revoked, _ = store.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked, "entries lapse with the token")
}
