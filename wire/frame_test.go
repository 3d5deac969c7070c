package wire

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/chessmesh/chessmesh/chesserr"
	"github.com/chessmesh/chessmesh/envelope"
	"github.com/chessmesh/chessmesh/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedStream feeds reads back in caller-controlled chunk sizes and
// accepts writes in caller-controlled chunk sizes, to exercise partial-I/O
// resumption without a real socket.
type chunkedStream struct {
	readBuf   []byte
	readPos   int
	chunkSize int // 0 means "whatever the caller asked for"

	written []byte
}

func (c *chunkedStream) Read(p []byte) (int, error) {
	if c.readPos >= len(c.readBuf) {
		return 0, io.EOF
	}
	n := len(p)
	if c.chunkSize > 0 && c.chunkSize < n {
		n = c.chunkSize
	}
	if remaining := len(c.readBuf) - c.readPos; n > remaining {
		n = remaining
	}
	copy(p, c.readBuf[c.readPos:c.readPos+n])
	c.readPos += n
	return n, nil
}

func (c *chunkedStream) Write(p []byte) (int, error) {
	n := len(p)
	if c.chunkSize > 0 && c.chunkSize < n {
		n = c.chunkSize
	}
	c.written = append(c.written, p[:n]...)
	return n, nil
}

func (c *chunkedStream) SetReadDeadline(time.Time) error  { return nil }
func (c *chunkedStream) SetWriteDeadline(time.Time) error { return nil }

func buildFrame(t *testing.T, env *envelope.Envelope) []byte {
	t.Helper()
	body, err := json.Marshal(env)
	require.NoError(t, err)
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(body)))
	return append(prefix[:], body...)
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)
	env := envelope.New([]byte("payload"), id, time.Unix(1_234_567_890, 0))

	stream := &chunkedStream{}
	cfg := DefaultConfig()
	require.NoError(t, Write(stream, cfg, env))

	reader := &chunkedStream{readBuf: stream.written}
	got, err := Read(reader, cfg)
	require.NoError(t, err)
	assert.Equal(t, env.Sender, got.Sender)
	assert.Equal(t, env.Timestamp, got.Timestamp)
	assert.Equal(t, env.Message, got.Message)
}

func TestLengthPrefixMatchesBodySize(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)
	env := envelope.New([]byte("exact length check"), id, time.Now())

	stream := &chunkedStream{}
	require.NoError(t, Write(stream, DefaultConfig(), env))

	declared := binary.BigEndian.Uint32(stream.written[:4])
	assert.Equal(t, len(stream.written)-4, int(declared))
}

func TestPartialReadChunksYieldSameEnvelope(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)
	env := envelope.New([]byte("partial delivery"), id, time.Now())
	frame := buildFrame(t, env)

	for _, chunkSize := range []int{1, 2, 3, 7, 50} {
		t.Run("", func(t *testing.T) {
			reader := &chunkedStream{readBuf: frame, chunkSize: chunkSize}
			got, err := Read(reader, DefaultConfig())
			require.NoError(t, err)
			assert.Equal(t, env.Sender, got.Sender)
			assert.Equal(t, env.Message, got.Message)
		})
	}
}

func TestPartialWriteChunksProduceSameFrame(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)
	env := envelope.New([]byte("partial write"), id, time.Now())

	for _, chunkSize := range []int{1, 3, 9} {
		stream := &chunkedStream{chunkSize: chunkSize}
		require.NoError(t, Write(stream, DefaultConfig(), env))

		reader := &chunkedStream{readBuf: stream.written}
		got, err := Read(reader, DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, env.Message, got.Message)
	}
}

func TestZeroLengthRejectedBeforeBodyRead(t *testing.T) {
	var prefix [4]byte // length = 0
	reader := &chunkedStream{readBuf: prefix[:]}

	_, err := Read(reader, DefaultConfig())
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindInvalidLength, ce.Kind)
}

func TestOversizeRejectedBeforeBodyRead(t *testing.T) {
	cfg := DefaultConfig()
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(cfg.MaxMessageSize)+1)
	reader := &chunkedStream{readBuf: prefix[:]}

	_, err := Read(reader, cfg)
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindInvalidLength, ce.Kind)
	assert.Equal(t, 0, reader.readPos-4, "must not have consumed any body bytes")
}

func TestReaderUsableAfterRejectionOnFreshConnection(t *testing.T) {
	cfg := DefaultConfig()
	var badPrefix [4]byte
	binary.BigEndian.PutUint32(badPrefix[:], 0)
	_, err := Read(&chunkedStream{readBuf: badPrefix[:]}, cfg)
	require.Error(t, err)

	id, err2 := identity.Generate()
	require.NoError(t, err2)
	env := envelope.New([]byte("fresh"), id, time.Now())
	frame := buildFrame(t, env)
	got, err := Read(&chunkedStream{readBuf: frame}, cfg)
	require.NoError(t, err)
	assert.Equal(t, env.Message, got.Message)
}

func TestReadTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReadTimeout = 100 * time.Millisecond

	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	start := time.Now()
	_, err := Read(server, cfg)
	elapsed := time.Since(start)

	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindTimeout, ce.Kind)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.LessOrEqual(t, elapsed, 500*time.Millisecond)
}

func TestInvalidMessageFormatOnUndecodableBody(t *testing.T) {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], 3)
	frame := append(prefix[:], []byte("xyz")...)

	_, err := Read(&chunkedStream{readBuf: frame}, DefaultConfig())
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindInvalidMessageFormat, ce.Kind)
}

func TestMessageTooLargeOnWrite(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.MaxMessageSize = 10

	env := envelope.New(make([]byte, 100), id, time.Now())
	stream := &chunkedStream{}
	err = Write(stream, cfg, env)
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindMessageTooLarge, ce.Kind)
}
