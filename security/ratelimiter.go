package security

import (
	"fmt"
	"sync"
	"time"

	"github.com/chessmesh/chessmesh/chesserr"
	"github.com/chessmesh/chessmesh/internal/metrics"
)

// window is a per-key sliding log of event timestamps. Expired entries are
// trimmed from the front lazily, on access, and explicitly by Cleanup. Each
// check walks the retained entries once; a window only records an event
// while under its limit, so that walk is bounded by the configured limit.
type window struct {
	events []time.Time
}

func (w *window) trim(now time.Time, keep time.Duration) {
	cut := 0
	for cut < len(w.events) && now.Sub(w.events[cut]) > keep {
		cut++
	}
	if cut > 0 {
		w.events = append([]time.Time(nil), w.events[cut:]...)
	}
}

func (w *window) countSince(now time.Time, span time.Duration) int {
	count := 0
	for _, t := range w.events {
		if now.Sub(t) <= span {
			count++
		}
	}
	return count
}

// Limits bundles the rate limiter's tunable thresholds, defaulting to the
// values spec.md §6 documents.
type Limits struct {
	MaxMovesPerMinute        int
	MaxInvitationsPerHour    int
	MaxSyncRequestsPerMinute int
	MaxActiveGames           int
	BurstMovesAllowed        int
	BurstWindow              time.Duration
}

// DefaultLimits returns spec.md §6's documented defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxMovesPerMinute:        MaxMovesPerMinute,
		MaxInvitationsPerHour:    MaxInvitationsPerHour,
		MaxSyncRequestsPerMinute: MaxSyncRequestsPerMinute,
		MaxActiveGames:           MaxActiveGames,
		BurstMovesAllowed:        BurstMovesAllowed,
		BurstWindow:              time.Duration(BurstWindowSeconds) * time.Second,
	}
}

// RateLimiter holds per-key sliding-window counters for moves, invitations,
// sync requests, and an active-games tally per player. It is safe for
// concurrent use; every operation is O(1) amortized and never performs I/O
// while holding its lock.
type RateLimiter struct {
	mu     sync.Mutex
	limits Limits

	moves       map[string]*window // keyed by game id
	invitations map[string]*window // keyed by player id
	syncs       map[string]*window // keyed by game id
	activeGames map[string]int     // keyed by player id

	now func() time.Time
}

// NewRateLimiter creates a rate limiter using spec.md §6's documented defaults.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithLimits(DefaultLimits())
}

// NewRateLimiterWithLimits creates a rate limiter with caller-supplied
// thresholds, e.g. for operator tuning or the tighter bounds used in tests.
func NewRateLimiterWithLimits(limits Limits) *RateLimiter {
	return &RateLimiter{
		limits:      limits,
		moves:       make(map[string]*window),
		invitations: make(map[string]*window),
		syncs:       make(map[string]*window),
		activeGames: make(map[string]int),
		now:         time.Now,
	}
}

// CheckMoveRateLimit passes if both the per-minute and burst-window budgets
// for gameID have room, recording the event on success.
func (r *RateLimiter) CheckMoveRateLimit(gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.moves[gameID]
	if !ok {
		w = &window{}
		r.moves[gameID] = w
	}
	w.trim(now, minuteWindow)

	if w.countSince(now, minuteWindow) >= r.limits.MaxMovesPerMinute {
		return rateLimitError("move", gameID, "%d per minute", r.limits.MaxMovesPerMinute)
	}
	if w.countSince(now, r.limits.BurstWindow) >= r.limits.BurstMovesAllowed {
		return rateLimitError("move", gameID, "%d per %s burst", r.limits.BurstMovesAllowed, r.limits.BurstWindow)
	}
	w.events = append(w.events, now)
	return nil
}

// CheckInvitationRateLimit passes if playerID has sent fewer than the
// configured number of invitations in the trailing hour.
func (r *RateLimiter) CheckInvitationRateLimit(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.invitations[playerID]
	if !ok {
		w = &window{}
		r.invitations[playerID] = w
	}
	w.trim(now, hourWindow)

	if w.countSince(now, hourWindow) >= r.limits.MaxInvitationsPerHour {
		return rateLimitError("invitation", playerID, "%d per hour", r.limits.MaxInvitationsPerHour)
	}
	w.events = append(w.events, now)
	return nil
}

// CheckSyncRateLimit passes if gameID has fewer than the configured number
// of sync requests in the trailing minute.
func (r *RateLimiter) CheckSyncRateLimit(gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.syncs[gameID]
	if !ok {
		w = &window{}
		r.syncs[gameID] = w
	}
	w.trim(now, minuteWindow)

	if w.countSince(now, minuteWindow) >= r.limits.MaxSyncRequestsPerMinute {
		return rateLimitError("sync", gameID, "%d per minute", r.limits.MaxSyncRequestsPerMinute)
	}
	w.events = append(w.events, now)
	return nil
}

// RegisterActiveGame increments playerID's active-game tally.
func (r *RateLimiter) RegisterActiveGame(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeGames[playerID]++
}

// UnregisterActiveGame decrements playerID's active-game tally, floored at zero.
func (r *RateLimiter) UnregisterActiveGame(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeGames[playerID] > 0 {
		r.activeGames[playerID]--
	}
	if r.activeGames[playerID] == 0 {
		delete(r.activeGames, playerID)
	}
}

// CheckActiveGameLimit reports whether playerID may start one more game.
func (r *RateLimiter) CheckActiveGameLimit(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeGames[playerID] >= r.limits.MaxActiveGames {
		return rateLimitError("active_games", playerID, "%d concurrent games", r.limits.MaxActiveGames)
	}
	return nil
}

// Cleanup prunes every window of entries older than that window's span and
// removes empty map entries, bounding the limiter's memory independent of
// call volume.
func (r *RateLimiter) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	pruneWindows(r.moves, now, minuteWindow)
	pruneWindows(r.invitations, now, hourWindow)
	pruneWindows(r.syncs, now, minuteWindow)
}

func pruneWindows(windows map[string]*window, now time.Time, span time.Duration) {
	for key, w := range windows {
		w.trim(now, span)
		if len(w.events) == 0 {
			delete(windows, key)
		}
	}
}

func rateLimitError(operation, key, limitFormat string, limitArgs ...any) error {
	metrics.RateLimitRejections.WithLabelValues(operation).Inc()
	return chesserr.New(chesserr.KindRateLimitExceeded, "%s rate limit exceeded for %s", operation, key).
		WithField("operation", operation).
		WithField("key", key).
		WithField("limit", fmt.Sprintf(limitFormat, limitArgs...))
}
