// Package server implements the accept loop: a bound listener that
// dispatches each accepted stream to its own handler task under a hard cap
// on concurrent connections.
package server

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/chessmesh/chessmesh/chessmsg"
	"github.com/chessmesh/chessmesh/identity"
	"github.com/chessmesh/chessmesh/internal/health"
	"github.com/chessmesh/chessmesh/internal/logger"
	"github.com/chessmesh/chessmesh/internal/metrics"
	"github.com/chessmesh/chessmesh/transport"
	"github.com/chessmesh/chessmesh/wire"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConnections is spec.md §6's MAX_CONCURRENT_CONNECTIONS.
const DefaultMaxConnections = 1000

// Dispatcher handles one fully authenticated application message. The
// server's own message loop already intercepts and answers Ping directly;
// Dispatcher sees every other variant.
type Dispatcher interface {
	Dispatch(conn *transport.Connection, msg chessmsg.Message, sender string)
}

// DispatcherFunc adapts a plain function to the Dispatcher interface.
type DispatcherFunc func(conn *transport.Connection, msg chessmsg.Message, sender string)

func (f DispatcherFunc) Dispatch(conn *transport.Connection, msg chessmsg.Message, sender string) {
	f(conn, msg, sender)
}

// Config bundles the values a Server needs to accept and service
// connections.
type Config struct {
	Identity       *identity.Identity
	Wire           wire.Config
	MaxConnections int
	Dispatcher     Dispatcher
}

// Server owns a listener and runs the accept loop described in spec.md §4.6.
type Server struct {
	cfg      Config
	listener net.Listener
	active   atomic.Int64
	health   *health.Checker
}

// New wraps listener with cfg. A zero Config.MaxConnections is replaced with
// DefaultMaxConnections, and a nil Dispatcher becomes a no-op.
func New(listener net.Listener, cfg Config) *Server {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultMaxConnections
	}
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = DispatcherFunc(func(*transport.Connection, chessmsg.Message, string) {})
	}
	s := &Server{cfg: cfg, listener: listener, health: health.NewChecker(0)}
	s.health.Register("listener", health.ListenerCheck(s.pingOwnListener))
	return s
}

// ActiveConnections reports the number of connections currently being served.
func (s *Server) ActiveConnections() int64 { return s.active.Load() }

// Health returns the server's health checker, pre-registered with a check
// against its own listener. Callers add further checks (e.g.
// health.RepositoryCheck against a repo.Repository) before serving an
// operator health endpoint.
func (s *Server) Health() *health.Checker { return s.health }

func (s *Server) pingOwnListener(ctx context.Context) error {
	addr := s.listener.Addr()
	var d net.Dialer
	conn, err := d.DialContext(ctx, addr.Network(), addr.String())
	if err != nil {
		return err
	}
	return conn.Close()
}

// Serve runs the accept loop until ctx is cancelled or the listener errors.
// Each accepted connection runs in its own goroutine spawned from an
// errgroup.Group, bounded by a semaphore channel sized MaxConnections; an
// error on one connection never stops the loop from accepting the next.
func (s *Server) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, s.cfg.MaxConnections)

	g.Go(func() error {
		<-ctx.Done()
		s.listener.Close()
		return nil
	})

	g.Go(func() error {
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}

			select {
			case sem <- struct{}{}:
			default:
				logger.Warn("rejecting connection: at capacity", logger.Int("max_connections", s.cfg.MaxConnections))
				metrics.ConnectionsRejected.Inc()
				conn.Close()
				continue
			}

			metrics.ConnectionsAccepted.Inc()
			metrics.ConnectionsActive.Inc()
			s.active.Add(1)
			g.Go(func() error {
				defer func() { <-sem }()
				s.handle(conn)
				return nil
			})
		}
	})

	return g.Wait()
}

func (s *Server) handle(stream net.Conn) {
	defer s.active.Add(-1)
	defer metrics.ConnectionsActive.Dec()
	defer stream.Close()

	tc := transport.New(stream, s.cfg.Identity, s.cfg.Wire)
	remoteID, err := tc.Handshake("server")
	if err != nil {
		logger.Warn("handshake failed", logger.Error(err))
		return
	}
	logger.Info("connection authenticated", logger.String("remote_peer_id", remoteID))

	for {
		msg, sender, err := tc.Recv()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if isClosed(err) {
				metrics.ConnectionsClosed.WithLabelValues("eof").Inc()
				return
			}
			logger.Warn("connection error, closing", logger.Error(err))
			metrics.ConnectionsClosed.WithLabelValues("error").Inc()
			return
		}

		if msg.Kind == chessmsg.KindPing {
			if sendErr := tc.Send(chessmsg.NewPong(msg.Nonce, msg.Payload)); sendErr != nil {
				logger.Warn("failed to echo pong", logger.Error(sendErr))
				return
			}
			continue
		}

		s.cfg.Dispatcher.Dispatch(tc, msg, sender)
	}
}
