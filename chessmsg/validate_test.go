package chessmsg

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/chessmesh/chessmesh/chesserr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validGameID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewRandom() // NewRandom produces a v4 UUID
	require.NoError(t, err)
	return id.String()
}

func hashOf(t *testing.T, data []byte) string {
	t.Helper()
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestValidateGameIDRejectsNilAndNonV4(t *testing.T) {
	msg := Move(uuid.Nil.String(), "e2e4", hashOf(t, []byte("x")))
	err := Validate(msg, nil)
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindInvalidGameID, ce.Kind)

	v1, err := uuid.NewUUID() // time-based, not v4
	require.NoError(t, err)
	msg2 := Move(v1.String(), "e2e4", hashOf(t, []byte("x")))
	err = Validate(msg2, nil)
	require.Error(t, err)
	ce, ok = chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindInvalidGameID, ce.Kind)
}

func TestValidateMoveGrammar(t *testing.T) {
	gid := validGameID(t)
	valid := []string{"e2e4", "e7e8q", "O-O", "O-O-O", "a1h8n"}
	for _, mv := range valid {
		msg := Move(gid, mv, hashOf(t, []byte("board")))
		assert.NoError(t, Validate(msg, nil), "expected %q to be valid", mv)
	}

	invalid := []string{"", "e2-e4", "e2 e4", "z9z9", "e2e4qq", "o-o"}
	for _, mv := range invalid {
		msg := Move(gid, mv, hashOf(t, []byte("board")))
		err := Validate(msg, nil)
		require.Error(t, err, "expected %q to be invalid", mv)
		ce, ok := chesserr.As(err)
		require.True(t, ok)
		assert.Equal(t, chesserr.KindInvalidMove, ce.Kind)
	}
}

func TestValidateMoveRejectsCaseFoldedCastling(t *testing.T) {
	gid := validGameID(t)
	msg := Move(gid, "o-o", hashOf(t, []byte("board")))
	err := Validate(msg, nil)
	require.Error(t, err)
}

func TestValidateBoardHashFormat(t *testing.T) {
	gid := validGameID(t)
	msg := Move(gid, "e2e4", "not-hex")
	err := Validate(msg, nil)
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindInvalidBoardHash, ce.Kind)
}

func TestValidateSyncResponseFEN(t *testing.T) {
	gid := validGameID(t)
	validFEN := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	msg := SyncResponse(gid, validFEN, []string{"e2e4", "e7e5"}, hashOf(t, []byte("board")))
	assert.NoError(t, Validate(msg, nil))

	bad := SyncResponse(gid, "not a fen", nil, hashOf(t, []byte("board")))
	err := Validate(bad, nil)
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindInvalidFen, ce.Kind)
}

func TestValidateOptionalFieldsRejectEmptyString(t *testing.T) {
	gid := validGameID(t)
	empty := ""
	msg := GameDecline(gid, &empty)
	err := Validate(msg, nil)
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindInvalidMessageFormat, ce.Kind)
}

func TestValidateOptionalFieldAbsentIsFine(t *testing.T) {
	gid := validGameID(t)
	msg := GameDecline(gid, nil)
	assert.NoError(t, Validate(msg, nil))
}

func TestValidateInjectionInReason(t *testing.T) {
	gid := validGameID(t)
	reason := "<script>alert(1)</script>"
	msg := GameDecline(gid, &reason)
	err := Validate(msg, nil)
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindInjectionAttempt, ce.Kind)
}

type fakeBoardProvider struct {
	canonical []byte
	ok        bool
}

func (f fakeBoardProvider) CanonicalBoardBytes(string) ([]byte, bool) {
	return f.canonical, f.ok
}

func TestValidateBoardTamperingDetected(t *testing.T) {
	gid := validGameID(t)
	provider := fakeBoardProvider{canonical: []byte("real-position"), ok: true}
	msg := Move(gid, "e2e4", hashOf(t, []byte("wrong-position")))
	err := Validate(msg, provider)
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindBoardTampering, ce.Kind)
}

func TestValidateBoardBindingPassesOnMatch(t *testing.T) {
	gid := validGameID(t)
	provider := fakeBoardProvider{canonical: []byte("real-position"), ok: true}
	msg := Move(gid, "e2e4", hashOf(t, []byte("real-position")))
	assert.NoError(t, Validate(msg, provider))
}

func TestValidatePingPongSkipGameID(t *testing.T) {
	assert.NoError(t, Validate(NewPing(42, "hi"), nil))
	assert.NoError(t, Validate(NewPong(42, "hi"), nil))
}

func TestParseColorAcceptsCaseInsensitiveAliases(t *testing.T) {
	cases := map[string]Color{
		"white": ColorWhite, "W": ColorWhite, " White ": ColorWhite,
		"black": ColorBlack, "b": ColorBlack,
		"random": ColorNone, "rand": ColorNone, "r": ColorNone, "": ColorNone,
	}
	for input, want := range cases {
		got, err := ParseColor(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestParseColorRejectsUnknownInput(t *testing.T) {
	_, err := ParseColor("purple")
	require.Error(t, err)
	ce, ok := chesserr.As(err)
	require.True(t, ok)
	assert.Equal(t, chesserr.KindInvalidData, ce.Kind)
}

func TestNormalizeMoveTrimsAndAccepts(t *testing.T) {
	got, err := NormalizeMove("  e2e4  ")
	require.NoError(t, err)
	assert.Equal(t, "e2e4", got)

	got, err = NormalizeMove("O-O")
	require.NoError(t, err)
	assert.Equal(t, "O-O", got)
}

func TestNormalizeMoveRejectsSpacesAndDashes(t *testing.T) {
	_, err := NormalizeMove("e2 e4")
	require.Error(t, err)

	_, err = NormalizeMove("e2-e4")
	require.Error(t, err)

	_, err = NormalizeMove("")
	require.Error(t, err)
}
