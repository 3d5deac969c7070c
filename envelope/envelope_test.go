package envelope

import (
	"testing"
	"time"

	"github.com/chessmesh/chessmesh/chesserr"
	"github.com/chessmesh/chessmesh/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripVerifies(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)

	at := time.Unix(1_234_567_890, 0)
	env := New([]byte("hello"), id, at)

	assert.Equal(t, id.PeerID(), env.Sender)
	assert.Equal(t, uint64(1_234_567_890), env.Timestamp)
	assert.NoError(t, env.Verify(at, DefaultSkewTolerance))
}

func TestFlippedBitInvalidatesSignature(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)

	at := time.Now()
	env := New([]byte("hello"), id, at)

	tampered := *env
	tampered.Message = []byte("hellp")
	err = tampered.Verify(at, DefaultSkewTolerance)
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindInvalidSignature, ce.Kind)
}

func TestFlippedSenderInvalidatesSignature(t *testing.T) {
	idA, err := identity.Generate()
	require.NoError(t, err)
	idB, err := identity.Generate()
	require.NoError(t, err)

	at := time.Now()
	env := New([]byte("hello"), idA, at)
	env.Sender = idB.PeerID()

	err = env.Verify(at, DefaultSkewTolerance)
	assert.Error(t, err)
}

func TestFlippedTimestampInvalidatesSignature(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)

	at := time.Now()
	env := New([]byte("hello"), id, at)
	env.Timestamp++

	err = env.Verify(at, DefaultSkewTolerance)
	assert.Error(t, err)
}

func TestTimestampSkewRejected(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)

	past := time.Now().Add(-1 * time.Hour)
	env := New([]byte("hello"), id, past)

	err = env.Verify(time.Now(), DefaultSkewTolerance)
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindInvalidTimestamp, ce.Kind)
}

func TestEmptySenderRejected(t *testing.T) {
	env := &Envelope{Message: []byte("x"), Signature: []byte("y"), Sender: "", Timestamp: 1}
	err := env.Verify(time.Now(), DefaultSkewTolerance)
	assert.Error(t, err)
}
