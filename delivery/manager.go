// Package delivery layers retry-strategy selection, a pending-message
// buffer, and deduplicated peer-liveness checks on top of the client
// package's one-shot connection primitives.
package delivery

import (
	"sync"
	"time"

	"github.com/chessmesh/chessmesh/chessmsg"
	"github.com/chessmesh/chessmesh/client"
	"github.com/chessmesh/chessmesh/internal/logger"
	"github.com/chessmesh/chessmesh/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// PendingRetention is how long an undelivered message survives in the
// buffer before Cleanup purges it (spec.md §4.7).
const PendingRetention = 1 * time.Hour

// LivenessTimeout bounds IsPeerOnline (spec.md §4.7: "never blocks
// indefinitely").
const LivenessTimeout = 5 * time.Second

// PendingMessage is a message the delivery manager could not deliver and is
// holding for a later drain via SendPendingMessages.
type PendingMessage struct {
	Message      chessmsg.Message
	GameID       string
	CreatedAt    time.Time
	AttemptCount int
}

func (p PendingMessage) expired(now time.Time) bool {
	return now.Sub(p.CreatedAt) > PendingRetention
}

// Manager is the delivery manager described in spec.md §4.7: per-peer
// pending queues behind a mutex, retry-strategy dispatch, and
// singleflight-deduplicated liveness checks so concurrent callers probing
// the same peer share one ping rather than each paying its own timeout.
type Manager struct {
	client *client.Client

	mu      sync.Mutex
	pending map[string][]PendingMessage // keyed by peer addr

	liveness singleflight.Group
	now      func() time.Time
	sleep    func(time.Duration)
}

// NewManager builds a Manager that sends through c.
func NewManager(c *client.Client) *Manager {
	return &Manager{
		client:  c,
		pending: make(map[string][]PendingMessage),
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// SendMessageTo attempts delivery of msg to addr using the retry strategy
// assigned to msg.Kind. On exhausted retries for a retriable failure, the
// message is queued in the pending buffer for addr and the original error
// is returned.
func (m *Manager) SendMessageTo(addr string, msg chessmsg.Message) (chessmsg.Message, error) {
	strategy := StrategyFor(msg.Kind)

	var lastErr error
	for attempt := 0; attempt < strategy.MaxAttempts(); attempt++ {
		if attempt > 0 {
			m.sleep(backoffDelay(strategy, attempt-1))
		}
		reply, err := m.client.SendMessageTo(addr, msg)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !isRetriable(err) {
			return chessmsg.Message{}, err
		}
		metrics.DeliveryRetries.WithLabelValues(string(msg.Kind)).Inc()
		logger.Warn("delivery attempt failed, will retry if budget remains",
			logger.String("addr", addr), logger.Int("attempt", attempt+1))
	}

	metrics.DeliveryExhausted.WithLabelValues(string(msg.Kind)).Inc()
	m.enqueuePending(addr, msg, strategy.MaxAttempts())
	return chessmsg.Message{}, lastErr
}

func (m *Manager) enqueuePending(addr string, msg chessmsg.Message, attempts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[addr] = append(m.pending[addr], PendingMessage{
		Message:      msg,
		GameID:       msg.GameID,
		CreatedAt:    m.now(),
		AttemptCount: attempts,
	})
	metrics.PendingMessages.Inc()
}

// PendingCount returns how many messages are queued for addr.
func (m *Manager) PendingCount(addr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending[addr])
}

// SendPendingMessages drains addr's queue in FIFO order, giving each message
// one more retry cycle. Messages whose attempt count already exceeds their
// strategy's cap are dropped without being resent.
func (m *Manager) SendPendingMessages(addr string) {
	m.mu.Lock()
	queue := m.pending[addr]
	delete(m.pending, addr)
	m.mu.Unlock()
	metrics.PendingMessages.Sub(float64(len(queue)))

	for _, p := range queue {
		strategy := StrategyFor(p.Message.Kind)
		if p.AttemptCount > strategy.MaxAttempts() {
			logger.Warn("dropping pending message: attempt cap exceeded",
				logger.String("addr", addr), logger.String("game_id", p.GameID))
			continue
		}
		if _, err := m.client.SendMessageTo(addr, p.Message); err != nil {
			logger.Warn("pending message redelivery failed", logger.String("addr", addr), logger.Error(err))
		}
	}
}

// CleanupConnections purges pending entries older than PendingRetention
// across all peers.
func (m *Manager) CleanupConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for addr, queue := range m.pending {
		kept := queue[:0]
		for _, p := range queue {
			if !p.expired(now) {
				kept = append(kept, p)
			}
		}
		metrics.PendingMessages.Sub(float64(len(queue) - len(kept)))
		if len(kept) == 0 {
			delete(m.pending, addr)
		} else {
			m.pending[addr] = kept
		}
	}
}

// IsPeerOnline performs a short-timeout ping and reports whether addr
// replied. Concurrent calls for the same addr share a single in-flight
// ping via singleflight rather than each issuing their own.
func (m *Manager) IsPeerOnline(addr string) bool {
	result, _, _ := m.liveness.Do(addr, func() (any, error) {
		done := make(chan error, 1)
		go func() { done <- m.client.Ping(addr, "liveness") }()

		select {
		case err := <-done:
			return err == nil, nil
		case <-time.After(LivenessTimeout):
			return false, nil
		}
	})
	online, _ := result.(bool)
	if online {
		metrics.PeerLivenessChecks.WithLabelValues("online").Inc()
	} else {
		metrics.PeerLivenessChecks.WithLabelValues("offline").Inc()
	}
	return online
}
