package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/bubble-duel/internal/game"
)

func newTestStore(t *testing.T) *StatsStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStatsStore(client)
}

func TestStatsStore_RecordAndGet(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	// Empty store reads as zeros, not an error
	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalGames)
	assert.Zero(t, stats.Player1Wins)
	assert.Zero(t, stats.Player2Wins)

	require.NoError(t, store.RecordResult(ctx, "room01", game.Slot1, 3))
	require.NoError(t, store.RecordResult(ctx, "room02", game.Slot2, 5))
	require.NoError(t, store.RecordResult(ctx, "room03", game.Slot1, 2))

	stats, err = store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalGames)
	assert.Equal(t, int64(2), stats.Player1Wins)
	assert.Equal(t, int64(1), stats.Player2Wins)
}

func TestStatsStore_GetRecentMatches(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordResult(ctx, "room01", game.Slot1, 3))
	require.NoError(t, store.RecordResult(ctx, "room02", game.Slot2, 7))

	records, err := store.GetRecentMatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Most recent first
	assert.Equal(t, "room02", records[0].RoomID)
	assert.Equal(t, 2, records[0].Winner)
	assert.Equal(t, 7, records[0].Rounds)
	assert.NotZero(t, records[0].FinishedAt)
	assert.Equal(t, "room01", records[1].RoomID)

	// Limit respected
	records, err = store.GetRecentMatches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "room02", records[0].RoomID)
}

func TestStatsStore_RecentTrimmedToLimit(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < recentLimit+10; i++ {
		require.NoError(t, store.RecordResult(ctx, "roomxx", game.Slot1, 1))
	}

	records, err := store.GetRecentMatches(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, recentLimit)
}
