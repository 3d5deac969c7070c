package delivery

import (
	"errors"
	"io"
	"time"

	"github.com/chessmesh/chessmesh/chesserr"
	"github.com/chessmesh/chessmesh/chessmsg"
)

// StrategyName identifies one of the named retry strategies spec.md §4.7
// maps application operations onto.
type StrategyName string

const (
	NoRetry            StrategyName = "no_retry"
	FixedShort         StrategyName = "fixed_short"
	ExponentialBounded StrategyName = "exponential_bounded"
)

// Strategy exposes the two knobs the delivery manager needs to drive a retry
// loop for a given operation.
type Strategy struct {
	Name        StrategyName
	maxAttempts int
	baseDelay   time.Duration
}

func (s Strategy) MaxAttempts() int         { return s.maxAttempts }
func (s Strategy) BaseDelay() time.Duration { return s.baseDelay }

var (
	strategyNoRetry            = Strategy{Name: NoRetry, maxAttempts: 1, baseDelay: 0}
	strategyFixedShort         = Strategy{Name: FixedShort, maxAttempts: 2, baseDelay: 2 * time.Second}
	strategyExponentialBounded = Strategy{Name: ExponentialBounded, maxAttempts: 3, baseDelay: 1 * time.Second}
)

// strategyByOperation maps each chessmsg.Kind that the delivery manager
// sends to the named retry strategy spec.md §4.7 assigns it.
var strategyByOperation = map[chessmsg.Kind]Strategy{
	chessmsg.KindGameInvite:   strategyExponentialBounded,
	chessmsg.KindGameAccept:   strategyFixedShort,
	chessmsg.KindGameDecline:  strategyFixedShort,
	chessmsg.KindMove:         strategyExponentialBounded,
	chessmsg.KindMoveAck:      strategyFixedShort,
	chessmsg.KindSyncRequest:  strategyExponentialBounded,
	chessmsg.KindPing:         strategyFixedShort,
	chessmsg.KindPong:         strategyNoRetry,
}

// StrategyFor returns the retry strategy assigned to kind, defaulting to
// ExponentialBounded for any operation not explicitly listed.
func StrategyFor(kind chessmsg.Kind) Strategy {
	if s, ok := strategyByOperation[kind]; ok {
		return s
	}
	return strategyExponentialBounded
}

// backoffDelay returns strategy's base delay doubled per prior attempt,
// capped at 30s (spec.md §4.7).
func backoffDelay(strategy Strategy, attempt int) time.Duration {
	d := strategy.baseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d > 30*time.Second {
			return 30 * time.Second
		}
	}
	return d
}

// isRetriable classifies err per spec.md §4.7: network/timeout/EOF errors
// are retriable; validation/signature/protocol/security violations are not.
func isRetriable(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	ce, ok := chesserr.As(err)
	if !ok {
		return false
	}
	switch ce.Kind {
	case chesserr.KindIO, chesserr.KindTimeout, chesserr.KindUnexpectedEOF:
		return true
	default:
		return false
	}
}
