package chessmsg

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/chessmesh/chessmesh/chesserr"
	"github.com/chessmesh/chessmesh/security"
	"github.com/google/uuid"
)

var moveGrammar = regexp.MustCompile(`^(?:(?i:[a-h][1-8][a-h][1-8][qrbn]?)|O-O-O|O-O)$`)

var boardHash = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// BoardStateProvider exposes the position a game's core currently holds, so
// Validate can recompute and bind a claimed board hash against it. A nil
// provider skips the binding check, performing only the structural hash
// format check (spec.md §4.4 point 4: "performed only where the core holds
// the expected board state").
type BoardStateProvider interface {
	// CanonicalBoardBytes returns the canonical byte encoding of gameID's
	// current position, or false if the game is unknown.
	CanonicalBoardBytes(gameID string) ([]byte, bool)
}

// Validate runs the fixed validation pipeline from spec.md §4.4 over msg,
// short-circuiting on the first failure. provider may be nil.
func Validate(msg Message, provider BoardStateProvider) error {
	if err := validateGameID(msg); err != nil {
		return err
	}
	if err := validateStructure(msg); err != nil {
		return err
	}
	if err := validateSafeText(msg); err != nil {
		return err
	}
	if err := validateBoardBinding(msg, provider); err != nil {
		return err
	}
	return nil
}

func validateGameID(msg Message) error {
	if msg.Kind == KindPing || msg.Kind == KindPong {
		return nil
	}
	id, err := uuid.Parse(msg.GameID)
	if err != nil {
		return chesserr.New(chesserr.KindInvalidGameID, "game id %q is not a valid UUID", msg.GameID).
			WithField("game_id", msg.GameID)
	}
	if id == uuid.Nil {
		return chesserr.New(chesserr.KindInvalidGameID, "game id is the nil UUID")
	}
	if id.Version() != 4 {
		return chesserr.New(chesserr.KindInvalidGameID, "game id %q is not a v4 UUID", msg.GameID).
			WithField("game_id", msg.GameID).WithField("version", id.Version())
	}
	return nil
}

func validateStructure(msg Message) error {
	switch msg.Kind {
	case KindMove:
		if err := validateChessMove(msg.ChessMove); err != nil {
			return err
		}
		if !boardHash.MatchString(msg.BoardStateHash) {
			return chesserr.New(chesserr.KindInvalidBoardHash, "board_state_hash must be 64 hex characters").
				WithField("board_state_hash", msg.BoardStateHash)
		}
	case KindSyncResponse:
		if err := security.CheckFieldLength("board_fen", msg.BoardFEN, MaxFenLength); err != nil {
			return err
		}
		if len(strings.Fields(msg.BoardFEN)) != 6 {
			return chesserr.New(chesserr.KindInvalidFen, "board_fen must have six space-separated fields, got %d",
				len(strings.Fields(msg.BoardFEN)))
		}
		if len(msg.MoveHistory) > MaxMoveHistorySize {
			return chesserr.New(chesserr.KindInvalidMove, "move_history length %d exceeds max %d",
				len(msg.MoveHistory), MaxMoveHistorySize)
		}
		for _, mv := range msg.MoveHistory {
			if err := validateChessMove(mv); err != nil {
				return err
			}
		}
		if !boardHash.MatchString(msg.BoardStateHash) {
			return chesserr.New(chesserr.KindInvalidBoardHash, "board_state_hash must be 64 hex characters").
				WithField("board_state_hash", msg.BoardStateHash)
		}
	case KindGameDecline:
		if err := validateOptionalBoundedText("reason", msg.Reason, MaxReasonLength); err != nil {
			return err
		}
	case KindMoveAck:
		if err := validateOptionalBoundedText("move_id", msg.MoveID, MaxMoveNotationLength); err != nil {
			return err
		}
	}
	return nil
}

func validateChessMove(move string) error {
	if len(move) < 1 || len(move) > MaxMoveNotationLength {
		return chesserr.New(chesserr.KindInvalidMove, "chess_move length %d out of bounds [1, %d]",
			len(move), MaxMoveNotationLength).WithField("chess_move", move)
	}
	if !moveGrammar.MatchString(move) {
		return chesserr.New(chesserr.KindInvalidMove, "chess_move %q does not match coordinate or castling grammar", move).
			WithField("chess_move", move)
	}
	return nil
}

// validateOptionalBoundedText enforces spec.md §4.4's "optional; if present,
// length ≤ bound; empty strings are rejected (use absent instead)" rule.
func validateOptionalBoundedText(field string, value *string, max int) error {
	if value == nil {
		return nil
	}
	if *value == "" {
		return chesserr.New(chesserr.KindInvalidMessageFormat, "field %s must be absent, not empty", field).
			WithField("field", field)
	}
	return security.CheckFieldLength(field, *value, max)
}

func validateSafeText(msg Message) error {
	fields := map[string]string{}
	if msg.Reason != nil {
		fields["reason"] = *msg.Reason
	}
	if msg.MoveID != nil {
		fields["move_id"] = *msg.MoveID
	}
	if msg.ChessMove != "" {
		fields["chess_move"] = msg.ChessMove
	}
	if msg.BoardFEN != "" {
		fields["board_fen"] = msg.BoardFEN
	}
	if msg.Payload != "" {
		fields["payload"] = msg.Payload
	}
	for name, value := range fields {
		if err := security.CheckSafeText(name, value); err != nil {
			return err
		}
	}
	for i, mv := range msg.MoveHistory {
		if err := security.CheckSafeText("move_history", mv); err != nil {
			return err.(*chesserr.Error).WithField("index", i)
		}
	}
	return nil
}

// ParseColor parses a case-insensitive color specification as accepted by
// the CLI's --color flag and the original CLI's normalize_color_input:
// "white"/"w", "black"/"b", and "random"/"rand"/"r"/"" (no preference,
// reported as ColorNone).
func ParseColor(input string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "white", "w":
		return ColorWhite, nil
	case "black", "b":
		return ColorBlack, nil
	case "random", "rand", "r", "":
		return ColorNone, nil
	default:
		return "", chesserr.New(chesserr.KindInvalidData, "invalid color %q; use white, black, or random", input).
			WithField("color", input)
	}
}

// NormalizeMove trims a CLI-supplied move and rejects common notation
// mistakes with an actionable message before it ever reaches the wire,
// grounded on the original CLI's validate_chess_move. It shares
// validateChessMove's coordinate/castling grammar, so a move NormalizeMove
// accepts is guaranteed to pass Validate too.
func NormalizeMove(move string) (string, error) {
	trimmed := strings.TrimSpace(move)
	if trimmed == "" {
		return "", chesserr.New(chesserr.KindInvalidMove, "move cannot be empty; try moves like e2e4, e7e8q, or O-O")
	}
	if strings.Contains(trimmed, " ") {
		return "", chesserr.New(chesserr.KindInvalidMove, "chess moves must not contain spaces; use e2e4 instead of 'e2 e4'").
			WithField("chess_move", trimmed)
	}
	if strings.Contains(trimmed, "-") && !strings.HasPrefix(strings.ToUpper(trimmed), "O-O") {
		return "", chesserr.New(chesserr.KindInvalidMove, "use coordinate notation without dashes; use e2e4 instead of 'e2-e4'").
			WithField("chess_move", trimmed)
	}
	if err := validateChessMove(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

func validateBoardBinding(msg Message, provider BoardStateProvider) error {
	if provider == nil {
		return nil
	}
	if msg.Kind != KindMove && msg.Kind != KindSyncResponse {
		return nil
	}
	board, ok := provider.CanonicalBoardBytes(msg.GameID)
	if !ok {
		return nil
	}
	sum := sha256.Sum256(board)
	expected := hex.EncodeToString(sum[:])
	if !security.ConstantTimeHexEqual(strings.ToLower(msg.BoardStateHash), expected) {
		return chesserr.New(chesserr.KindBoardTampering, "claimed board_state_hash does not match the expected position").
			WithField("game_id", msg.GameID)
	}
	return nil
}
