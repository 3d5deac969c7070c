package wire

import "time"

// Size and timing bounds for the length-prefixed wire format. All are
// configurable per Config but these are the documented defaults.
const (
	LengthPrefixSize = 4

	MinMessageSize = 1
	MaxMessageSize = 16 * 1024 * 1024 // 16 MiB

	// MaxAllocationSize bounds the buffer the reader is willing to allocate
	// for a single frame body; chessmesh sets it equal to MaxMessageSize.
	MaxAllocationSize = MaxMessageSize

	SuspiciousMessageThreshold = 1 * 1024 * 1024 // 1 MiB

	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// Config is a value type cloned into every connection's task; it never
// changes after a connection is constructed.
type Config struct {
	MaxMessageSize int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultConfig returns the wire configuration matching the documented
// defaults.
func DefaultConfig() Config {
	return Config{
		MaxMessageSize: MaxMessageSize,
		ReadTimeout:    DefaultReadTimeout,
		WriteTimeout:   DefaultWriteTimeout,
	}
}
