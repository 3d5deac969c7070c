// Package repo defines the narrow persistence contract the core treats as
// an opaque collaborator (spec.md §6), plus in-memory and Postgres
// implementations.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GameStatus is the lifecycle state of a persisted game.
type GameStatus string

const (
	StatusPending   GameStatus = "pending"
	StatusActive    GameStatus = "active"
	StatusCompleted GameStatus = "completed"
	StatusAbandoned GameStatus = "abandoned"
)

// Game is the persisted record of one chess game between two peers.
type Game struct {
	ID        uuid.UUID
	Status    GameStatus
	WhiteID   string
	BlackID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoredMessage is a persisted envelope-carried application message.
type StoredMessage struct {
	ID        uuid.UUID
	GameID    uuid.UUID
	Type      string // the chessmsg.Kind tag, stored as a string
	Content   []byte // serialized chessmsg.Message
	Timestamp time.Time
}

// Repository is the persistence contract spec.md §6 names. The core treats
// it as opaque and never assumes a specific storage backend.
type Repository interface {
	GetGame(ctx context.Context, id uuid.UUID) (*Game, error)
	GetAllGames(ctx context.Context) ([]*Game, error)
	GetGamesByStatus(ctx context.Context, status GameStatus) ([]*Game, error)
	GetMessagesForGame(ctx context.Context, id uuid.UUID) ([]*StoredMessage, error)
	InsertGame(ctx context.Context, g *Game) error
	InsertMessage(ctx context.Context, m *StoredMessage) error
}
