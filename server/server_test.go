package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/chessmesh/chessmesh/chessmsg"
	"github.com/chessmesh/chessmesh/identity"
	"github.com/chessmesh/chessmesh/transport"
	"github.com/chessmesh/chessmesh/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, cfg Config) (addr string, active func() int64, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(ln, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx)
		close(done)
	}()

	return ln.Addr().String(), srv.ActiveConnections, func() {
		cancel()
		<-done
	}
}

func TestServerEchoesPingAsPong(t *testing.T) {
	serverID, err := identity.Generate()
	require.NoError(t, err)
	addr, _, stop := startTestServer(t, Config{Identity: serverID, Wire: wire.DefaultConfig()})
	defer stop()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	clientID, err := identity.Generate()
	require.NoError(t, err)
	tc := transport.New(conn, clientID, wire.DefaultConfig())
	_, err = tc.Handshake("client")
	require.NoError(t, err)

	require.NoError(t, tc.Send(chessmsg.NewPing(99, "keepalive")))
	reply, _, err := tc.Recv()
	require.NoError(t, err)
	assert.Equal(t, chessmsg.KindPong, reply.Kind)
	assert.Equal(t, uint64(99), reply.Nonce)
	assert.Equal(t, "keepalive", reply.Payload)
}

func TestServerDispatchesNonPingMessages(t *testing.T) {
	serverID, err := identity.Generate()
	require.NoError(t, err)

	received := make(chan chessmsg.Message, 1)
	dispatcher := DispatcherFunc(func(conn *transport.Connection, msg chessmsg.Message, sender string) {
		received <- msg
	})
	addr, _, stop := startTestServer(t, Config{Identity: serverID, Wire: wire.DefaultConfig(), Dispatcher: dispatcher})
	defer stop()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	clientID, err := identity.Generate()
	require.NoError(t, err)
	tc := transport.New(conn, clientID, wire.DefaultConfig())
	_, err = tc.Handshake("client")
	require.NoError(t, err)

	require.NoError(t, tc.Send(chessmsg.SyncRequest("11111111-1111-4111-8111-111111111111")))

	select {
	case msg := <-received:
		assert.Equal(t, chessmsg.KindSyncRequest, msg.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher was never invoked")
	}
}

func TestServerRejectsConnectionsOverCapacity(t *testing.T) {
	serverID, err := identity.Generate()
	require.NoError(t, err)
	addr, active, stop := startTestServer(t, Config{Identity: serverID, Wire: wire.DefaultConfig(), MaxConnections: 1})
	defer stop()

	clientID, err := identity.Generate()
	require.NoError(t, err)

	conn1, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn1.Close()
	tc1 := transport.New(conn1, clientID, wire.DefaultConfig())
	_, err = tc1.Handshake("client")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return active() == 1 }, time.Second, 10*time.Millisecond)

	conn2, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn2.Close()

	buf := make([]byte, 1)
	conn2.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, readErr := conn2.Read(buf)
	assert.Error(t, readErr, "server should close the over-capacity connection")
}

func TestServerContinuesAcceptingAfterOneConnectionFails(t *testing.T) {
	serverID, err := identity.Generate()
	require.NoError(t, err)
	addr, _, stop := startTestServer(t, Config{Identity: serverID, Wire: wire.DefaultConfig()})
	defer stop()

	bad, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	bad.Write([]byte("not a valid handshake frame"))
	bad.Close()

	clientID, err := identity.Generate()
	require.NoError(t, err)
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	tc := transport.New(conn, clientID, wire.DefaultConfig())
	_, err = tc.Handshake("client")
	require.NoError(t, err, "a prior bad connection must not affect a fresh one")
}
