// Package client implements outbound connection establishment with
// retry/backoff, and the one-shot send/ping conveniences built on top of it.
package client

import (
	"math"
	"net"
	"time"

	"github.com/chessmesh/chessmesh/chesserr"
	"github.com/chessmesh/chessmesh/chessmsg"
	"github.com/chessmesh/chessmesh/identity"
	"github.com/chessmesh/chessmesh/internal/logger"
	"github.com/chessmesh/chessmesh/internal/metrics"
	"github.com/chessmesh/chessmesh/transport"
	"github.com/chessmesh/chessmesh/wire"
)

// Retry defaults from spec.md §6.
const (
	MaxRetryAttempts = 3
	BaseRetryDelay   = 1 * time.Second
	MaxRetryDelay    = 30 * time.Second
)

// Dialer abstracts net.Dial for testability.
type Dialer func(addr string) (net.Conn, error)

// Client establishes authenticated connections to peers, retrying transient
// failures with exponential backoff.
type Client struct {
	Identity *identity.Identity
	Wire     wire.Config
	Dial     Dialer
	Sleep    func(time.Duration) // overridable in tests
}

// New builds a Client that dials real TCP connections.
func New(id *identity.Identity, cfg wire.Config) *Client {
	return &Client{
		Identity: id,
		Wire:     cfg,
		Dial:     func(addr string) (net.Conn, error) { return net.Dial("tcp", addr) },
		Sleep:    time.Sleep,
	}
}

func backoffDelay(attempt int) time.Duration {
	d := time.Duration(float64(BaseRetryDelay) * math.Pow(2, float64(attempt)))
	if d > MaxRetryDelay {
		return MaxRetryDelay
	}
	return d
}

// Connect establishes a stream to addr and runs the handshake, retrying
// connect and handshake failures alike up to MaxRetryAttempts with
// exponential backoff (spec.md §4.7: "handshake failures do not consume
// retries differently from connect failures").
func (c *Client) Connect(addr string) (*transport.Connection, error) {
	started := time.Now()
	var lastErr error
	for attempt := 0; attempt < MaxRetryAttempts; attempt++ {
		if attempt > 0 {
			c.Sleep(backoffDelay(attempt - 1))
		}

		conn, err := c.Dial(addr)
		if err != nil {
			lastErr = chesserr.Wrap(chesserr.KindIO, err, "connecting to %s", addr)
			logger.Warn("connect attempt failed", logger.String("addr", addr), logger.Int("attempt", attempt+1))
			continue
		}

		tc := transport.New(conn, c.Identity, c.Wire)
		if _, err := tc.Handshake("client"); err != nil {
			conn.Close()
			lastErr = err
			logger.Warn("handshake attempt failed", logger.String("addr", addr), logger.Int("attempt", attempt+1))
			continue
		}
		metrics.ConnectDuration.Observe(time.Since(started).Seconds())
		return tc, nil
	}
	return nil, chesserr.Wrap(chesserr.KindIO, lastErr, "exhausted %d connect attempts to %s", MaxRetryAttempts, addr)
}

// SendMessageTo connects to addr, sends message, waits for exactly one
// reply, and closes the connection.
func (c *Client) SendMessageTo(addr string, message chessmsg.Message) (chessmsg.Message, error) {
	conn, err := c.Connect(addr)
	if err != nil {
		return chessmsg.Message{}, err
	}
	defer conn.Close()

	if err := conn.Send(message); err != nil {
		return chessmsg.Message{}, err
	}
	reply, _, err := conn.Recv()
	if err != nil {
		return chessmsg.Message{}, err
	}
	return reply, nil
}

// Ping sends a Ping with a random nonce to addr and verifies the reply is a
// Pong echoing the same nonce.
func (c *Client) Ping(addr, payload string) error {
	nonce, err := randomNonce()
	if err != nil {
		return err
	}
	reply, err := c.SendMessageTo(addr, chessmsg.NewPing(nonce, payload))
	if err != nil {
		return err
	}
	if reply.Kind != chessmsg.KindPong {
		return chesserr.New(chesserr.KindProtocolViolation, "expected Pong in reply to Ping, got %s", reply.Kind)
	}
	if reply.Nonce != nonce {
		return chesserr.New(chesserr.KindProtocolViolation, "pong nonce %d does not match ping nonce %d", reply.Nonce, nonce)
	}
	return nil
}
