package security

import (
	"testing"
	"time"

	"github.com/chessmesh/chessmesh/chesserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveRateLimitEnforced(t *testing.T) {
	rl := NewRateLimiter()
	// Moves are spaced 2s apart so the 5-per-5s burst budget never trips:
	// the 30 allowed moves span 58s, and the 31st, at +60s, still sees all 30
	// inside the minute window and is rejected by the per-minute budget.
	clock := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return clock }
	for i := 0; i < MaxMovesPerMinute; i++ {
		require.NoError(t, rl.CheckMoveRateLimit("game-1"))
		clock = clock.Add(2 * time.Second)
	}
	err := rl.CheckMoveRateLimit("game-1")
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindRateLimitExceeded, ce.Kind)
}

func TestBurstMoveLimitTripsBeforePerMinuteLimit(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < BurstMovesAllowed; i++ {
		require.NoError(t, rl.CheckMoveRateLimit("game-burst"))
	}
	err := rl.CheckMoveRateLimit("game-burst")
	require.Error(t, err)
}

func TestRateLimiterIsolationAcrossGames(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < BurstMovesAllowed; i++ {
		require.NoError(t, rl.CheckMoveRateLimit("g1"))
	}
	require.Error(t, rl.CheckMoveRateLimit("g1"))

	// g2's budget is untouched by g1 exhausting its own.
	assert.NoError(t, rl.CheckMoveRateLimit("g2"))
}

func TestInvitationRateLimit(t *testing.T) {
	rl := NewRateLimiter()
	fixed := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return fixed }

	for i := 0; i < MaxInvitationsPerHour; i++ {
		require.NoError(t, rl.CheckInvitationRateLimit("bob"))
	}
	err := rl.CheckInvitationRateLimit("bob")
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindRateLimitExceeded, ce.Kind)
}

func TestInvitationRateLimitCustomLimits(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxInvitationsPerHour = 3
	rl := NewRateLimiterWithLimits(limits)
	fixed := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return fixed }

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.CheckInvitationRateLimit("dave"))
	}
	err := rl.CheckInvitationRateLimit("dave")
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindRateLimitExceeded, ce.Kind)
}

func TestSyncRateLimit(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < MaxSyncRequestsPerMinute; i++ {
		require.NoError(t, rl.CheckSyncRateLimit("game-sync"))
	}
	assert.Error(t, rl.CheckSyncRateLimit("game-sync"))
}

func TestActiveGameLimit(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < MaxActiveGames; i++ {
		require.NoError(t, rl.CheckActiveGameLimit("carol"))
		rl.RegisterActiveGame("carol")
	}
	assert.Error(t, rl.CheckActiveGameLimit("carol"))

	rl.UnregisterActiveGame("carol")
	assert.NoError(t, rl.CheckActiveGameLimit("carol"))
}

func TestCleanupPrunesExpiredWindows(t *testing.T) {
	rl := NewRateLimiter()
	base := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return base }

	require.NoError(t, rl.CheckMoveRateLimit("stale-game"))
	rl.now = func() time.Time { return base.Add(2 * time.Minute) }
	rl.Cleanup()

	rl.mu.Lock()
	_, exists := rl.moves["stale-game"]
	rl.mu.Unlock()
	assert.False(t, exists, "expired window should have been pruned")
}
