// Package chessmsg implements the application message taxonomy carried
// inside a signed envelope's payload: game invitations, moves, board sync,
// and the Ping/Pong keep-alive pair, along with the validation pipeline that
// every received (or outbound) message must pass before it reaches the
// application layer.
package chessmsg

import "github.com/chessmesh/chessmesh/security"

// Bound constants re-exported from security for readability at call sites
// that only touch chessmsg.
const (
	MaxMoveNotationLength = security.MaxMoveNotationLength
	MaxFenLength          = security.MaxFenLength
	MaxReasonLength       = security.MaxReasonLength
	MaxMoveHistorySize    = security.MaxMoveHistorySize
)

// Color is a suggested or accepted side in a GameInvite/GameAccept exchange.
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
	ColorNone  Color = "none"
)

// Kind tags which variant a Message holds.
type Kind string

const (
	KindGameInvite   Kind = "game_invite"
	KindGameAccept   Kind = "game_accept"
	KindGameDecline  Kind = "game_decline"
	KindMove         Kind = "move"
	KindMoveAck      Kind = "move_ack"
	KindSyncRequest  Kind = "sync_request"
	KindSyncResponse Kind = "sync_response"
	KindPing         Kind = "ping"
	KindPong         Kind = "pong"
)

// Message is the tagged union of application message variants. GameID is
// carried by every variant except Ping/Pong, which are connection-level
// keep-alives with no associated game. Only the fields relevant to Kind are
// populated; the rest are left at their zero value.
type Message struct {
	Kind   Kind   `json:"kind"`
	GameID string `json:"game_id,omitempty"`

	// GameInvite / GameAccept
	SuggestedColor Color `json:"suggested_color,omitempty"`
	AcceptedColor  Color `json:"accepted_color,omitempty"`

	// GameDecline / MoveAck
	Reason *string `json:"reason,omitempty"`
	MoveID *string `json:"move_id,omitempty"`

	// Move
	ChessMove      string `json:"chess_move,omitempty"`
	BoardStateHash string `json:"board_state_hash,omitempty"`

	// SyncResponse
	BoardFEN    string   `json:"board_fen,omitempty"`
	MoveHistory []string `json:"move_history,omitempty"`

	// Ping / Pong
	Nonce   uint64 `json:"nonce,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// GameInvite builds a GameInvite message.
func GameInvite(gameID string, suggestedColor Color) Message {
	return Message{Kind: KindGameInvite, GameID: gameID, SuggestedColor: suggestedColor}
}

// GameAccept builds a GameAccept message.
func GameAccept(gameID string, acceptedColor Color) Message {
	return Message{Kind: KindGameAccept, GameID: gameID, AcceptedColor: acceptedColor}
}

// GameDecline builds a GameDecline message. A nil reason is encoded as
// absent, never as an empty string (spec.md §4.4's "empty strings are
// rejected; use absent instead").
func GameDecline(gameID string, reason *string) Message {
	return Message{Kind: KindGameDecline, GameID: gameID, Reason: reason}
}

// Move builds a Move message.
func Move(gameID, chessMove, boardStateHash string) Message {
	return Message{Kind: KindMove, GameID: gameID, ChessMove: chessMove, BoardStateHash: boardStateHash}
}

// MoveAck builds a MoveAck message.
func MoveAck(gameID string, moveID *string) Message {
	return Message{Kind: KindMoveAck, GameID: gameID, MoveID: moveID}
}

// SyncRequest builds a SyncRequest message.
func SyncRequest(gameID string) Message {
	return Message{Kind: KindSyncRequest, GameID: gameID}
}

// SyncResponse builds a SyncResponse message.
func SyncResponse(gameID, boardFEN string, moveHistory []string, boardStateHash string) Message {
	return Message{
		Kind:           KindSyncResponse,
		GameID:         gameID,
		BoardFEN:       boardFEN,
		MoveHistory:    moveHistory,
		BoardStateHash: boardStateHash,
	}
}

// NewPing builds a Ping message.
func NewPing(nonce uint64, payload string) Message {
	return Message{Kind: KindPing, Nonce: nonce, Payload: payload}
}

// NewPong builds a Pong message, typically echoing the nonce of a received Ping.
func NewPong(nonce uint64, payload string) Message {
	return Message{Kind: KindPong, Nonce: nonce, Payload: payload}
}
