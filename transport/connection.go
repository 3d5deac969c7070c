// Package transport implements the connection state machine and the
// mutual-authentication handshake that must complete before application
// messages may flow over a wire.Stream.
package transport

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/chessmesh/chessmesh/chesserr"
	"github.com/chessmesh/chessmesh/chessmsg"
	"github.com/chessmesh/chessmesh/envelope"
	"github.com/chessmesh/chessmesh/identity"
	"github.com/chessmesh/chessmesh/internal/logger"
	"github.com/chessmesh/chessmesh/internal/metrics"
	"github.com/chessmesh/chessmesh/wire"
)

// State is a Connection's position in its authentication lifecycle.
type State int

const (
	StateUnauthenticated State = iota
	StateHandshakeInProgress
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateHandshakeInProgress:
		return "handshake_in_progress"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DefaultHandshakeTimeout bounds each half of the four-message handshake.
const DefaultHandshakeTimeout = 10 * time.Second

// Connection wraps a byte stream and owns its authentication state. Every
// Connection is owned exclusively by the task that created it; it is never
// shared across goroutines.
type Connection struct {
	stream           wire.Stream
	identity         *identity.Identity
	wireCfg          wire.Config
	handshakeTimeout time.Duration

	state    State
	remoteID string
}

// New wraps stream with id's identity and cfg's framing limits. The
// connection starts Unauthenticated; call Handshake before sending or
// receiving application messages.
func New(stream wire.Stream, id *identity.Identity, cfg wire.Config) *Connection {
	return &Connection{
		stream:           stream,
		identity:         id,
		wireCfg:          cfg,
		handshakeTimeout: DefaultHandshakeTimeout,
		state:            StateUnauthenticated,
	}
}

// State reports the connection's current lifecycle state.
func (c *Connection) State() State { return c.state }

// RemotePeerID returns the authenticated peer's id, or "" before Handshake
// succeeds.
func (c *Connection) RemotePeerID() string { return c.remoteID }

func randomNonce() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, chesserr.Wrap(chesserr.KindIO, err, "generating handshake nonce")
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// Handshake runs the symmetric four-message Ping/Ping/Pong/Pong mutual
// authentication exchange (spec.md §4.3) and, on success, transitions the
// connection to Authenticated and records the remote peer id. role labels
// emitted metrics ("client" or "server") and does not affect the protocol,
// which is symmetric.
func (c *Connection) Handshake(role string) (string, error) {
	c.state = StateHandshakeInProgress
	started := time.Now()
	metrics.HandshakesInitiated.WithLabelValues(role).Inc()

	fail := func(kind string, err error) (string, error) {
		c.state = StateClosed
		metrics.HandshakesFailed.WithLabelValues(kind).Inc()
		return "", err
	}

	nonce, err := randomNonce()
	if err != nil {
		return fail("io", err)
	}

	ping := chessmsg.NewPing(nonce, "")
	if err := c.writeRaw(ping, c.handshakeTimeout); err != nil {
		return fail("io", chesserr.Wrap(chesserr.KindHandshakeFailed, err, "sending handshake ping"))
	}

	peerPing, remoteID, err := c.readRaw(c.handshakeTimeout)
	if err != nil {
		return fail("io", chesserr.Wrap(chesserr.KindHandshakeFailed, err, "reading peer's handshake ping"))
	}
	if peerPing.Kind != chessmsg.KindPing {
		return fail("protocol", chesserr.New(chesserr.KindHandshakeFailed, "expected Ping, got %s", peerPing.Kind))
	}

	pong := chessmsg.NewPong(peerPing.Nonce, "")
	if err := c.writeRaw(pong, c.handshakeTimeout); err != nil {
		return fail("io", chesserr.Wrap(chesserr.KindHandshakeFailed, err, "sending handshake pong"))
	}

	peerPong, _, err := c.readRaw(c.handshakeTimeout)
	if err != nil {
		return fail("io", chesserr.Wrap(chesserr.KindHandshakeFailed, err, "reading peer's handshake pong"))
	}
	if peerPong.Kind != chessmsg.KindPong {
		return fail("protocol", chesserr.New(chesserr.KindHandshakeFailed, "expected Pong, got %s", peerPong.Kind))
	}
	if peerPong.Nonce != nonce {
		return fail("nonce_mismatch", chesserr.New(chesserr.KindHandshakeFailed, "nonce mismatch"))
	}

	c.remoteID = remoteID
	c.state = StateAuthenticated
	metrics.HandshakesCompleted.WithLabelValues(role).Inc()
	metrics.HandshakeDuration.WithLabelValues(role).Observe(time.Since(started).Seconds())
	logger.Debug("handshake complete", logger.String("remote_peer_id", remoteID))
	return remoteID, nil
}

// Send serializes msg, wraps it in a signed envelope, and writes it to the
// stream. It fails with AuthenticationFailed unless the connection is
// Authenticated.
func (c *Connection) Send(msg chessmsg.Message) error {
	if c.state != StateAuthenticated {
		return chesserr.New(chesserr.KindAuthenticationFailed, "cannot send on a connection in state %s", c.state)
	}
	if err := c.writeRaw(msg, c.wireCfg.WriteTimeout); err != nil {
		metrics.MessagesProcessed.WithLabelValues(string(msg.Kind), "rejected").Inc()
		return err
	}
	metrics.MessagesProcessed.WithLabelValues(string(msg.Kind), "sent").Inc()
	return nil
}

// Recv reads, verifies, and deserializes the next application message,
// returning it along with the sender's peer id. It fails with
// AuthenticationFailed unless the connection is Authenticated.
func (c *Connection) Recv() (chessmsg.Message, string, error) {
	if c.state != StateAuthenticated {
		return chessmsg.Message{}, "", chesserr.New(chesserr.KindAuthenticationFailed,
			"cannot receive on a connection in state %s", c.state)
	}
	msg, sender, err := c.readRaw(c.wireCfg.ReadTimeout)
	if err != nil {
		return msg, sender, err
	}
	metrics.MessagesProcessed.WithLabelValues(string(msg.Kind), "received").Inc()
	return msg, sender, nil
}

// Close releases the underlying stream if it implements io.Closer and marks
// the connection Closed.
func (c *Connection) Close() error {
	c.state = StateClosed
	if closer, ok := c.stream.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func (c *Connection) writeRaw(msg chessmsg.Message, timeout time.Duration) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return chesserr.Wrap(chesserr.KindInvalidMessageFormat, err, "encoding outbound message")
	}
	env := envelope.New(body, c.identity, time.Time{})
	metrics.CryptoOperations.WithLabelValues("sign", "ed25519").Inc()
	cfg := c.wireCfg
	cfg.WriteTimeout = timeout
	metrics.MessageSize.Observe(float64(len(body)))
	return wire.Write(c.stream, cfg, env)
}

func (c *Connection) readRaw(timeout time.Duration) (chessmsg.Message, string, error) {
	cfg := c.wireCfg
	cfg.ReadTimeout = timeout
	env, err := wire.Read(c.stream, cfg)
	if err != nil {
		return chessmsg.Message{}, "", err
	}
	if err := env.Verify(time.Now(), envelope.DefaultSkewTolerance); err != nil {
		if ce, ok := chesserr.As(err); ok && ce.Kind == chesserr.KindInvalidTimestamp {
			metrics.EnvelopeTimestampRejections.Inc()
		}
		metrics.SignatureVerifications.WithLabelValues("invalid").Inc()
		return chessmsg.Message{}, "", err
	}
	metrics.SignatureVerifications.WithLabelValues("valid").Inc()
	metrics.CryptoOperations.WithLabelValues("verify", "ed25519").Inc()
	var msg chessmsg.Message
	if err := json.Unmarshal(env.Message, &msg); err != nil {
		return chessmsg.Message{}, "", chesserr.Wrap(chesserr.KindInvalidMessageFormat, err, "decoding application message")
	}
	return msg, env.Sender, nil
}
