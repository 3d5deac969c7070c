// Package postgres implements repo.Repository against a PostgreSQL
// database via pgx's connection pool.
package postgres

import (
	"context"

	"github.com/chessmesh/chessmesh/chesserr"
	"github.com/chessmesh/chessmesh/repo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements repo.Repository against a PostgreSQL database.
type Store struct {
	db *pgxpool.Pool
}

// New wraps an already-configured pool. Callers own the pool's lifecycle
// (pgxpool.New / Close).
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

var _ repo.Repository = (*Store)(nil)

// Schema is the DDL a deployment applies before using Store; exported so
// migration tooling and tests can share one source of truth.
const Schema = `
CREATE TABLE IF NOT EXISTS games (
	id UUID PRIMARY KEY,
	status TEXT NOT NULL,
	white_id TEXT NOT NULL,
	black_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id UUID PRIMARY KEY,
	game_id UUID NOT NULL REFERENCES games(id),
	message_type TEXT NOT NULL,
	content BYTEA NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS messages_game_id_idx ON messages(game_id);
`

func (s *Store) GetGame(ctx context.Context, id uuid.UUID) (*repo.Game, error) {
	const query = `
		SELECT id, status, white_id, black_id, created_at, updated_at
		FROM games WHERE id = $1
	`
	var g repo.Game
	err := s.db.QueryRow(ctx, query, id).Scan(&g.ID, &g.Status, &g.WhiteID, &g.BlackID, &g.CreatedAt, &g.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, chesserr.New(chesserr.KindNotFound, "game %s not found", id).WithField("game_id", id)
	}
	if err != nil {
		return nil, chesserr.Wrap(chesserr.KindQueryTimeout, err, "querying game %s", id)
	}
	return &g, nil
}

func (s *Store) GetAllGames(ctx context.Context) ([]*repo.Game, error) {
	const query = `
		SELECT id, status, white_id, black_id, created_at, updated_at
		FROM games ORDER BY created_at
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, chesserr.Wrap(chesserr.KindQueryTimeout, err, "listing games")
	}
	defer rows.Close()
	return scanGames(rows)
}

func (s *Store) GetGamesByStatus(ctx context.Context, status repo.GameStatus) ([]*repo.Game, error) {
	const query = `
		SELECT id, status, white_id, black_id, created_at, updated_at
		FROM games WHERE status = $1 ORDER BY created_at
	`
	rows, err := s.db.Query(ctx, query, status)
	if err != nil {
		return nil, chesserr.Wrap(chesserr.KindQueryTimeout, err, "listing games by status %s", status)
	}
	defer rows.Close()
	return scanGames(rows)
}

func scanGames(rows pgx.Rows) ([]*repo.Game, error) {
	var out []*repo.Game
	for rows.Next() {
		var g repo.Game
		if err := rows.Scan(&g.ID, &g.Status, &g.WhiteID, &g.BlackID, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, chesserr.Wrap(chesserr.KindSerialization, err, "scanning game row")
		}
		out = append(out, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, chesserr.Wrap(chesserr.KindQueryTimeout, err, "iterating game rows")
	}
	return out, nil
}

func (s *Store) GetMessagesForGame(ctx context.Context, id uuid.UUID) ([]*repo.StoredMessage, error) {
	const query = `
		SELECT id, game_id, message_type, content, timestamp
		FROM messages WHERE game_id = $1 ORDER BY timestamp
	`
	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		return nil, chesserr.Wrap(chesserr.KindQueryTimeout, err, "listing messages for game %s", id)
	}
	defer rows.Close()

	var out []*repo.StoredMessage
	for rows.Next() {
		var m repo.StoredMessage
		if err := rows.Scan(&m.ID, &m.GameID, &m.Type, &m.Content, &m.Timestamp); err != nil {
			return nil, chesserr.Wrap(chesserr.KindSerialization, err, "scanning message row")
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, chesserr.Wrap(chesserr.KindQueryTimeout, err, "iterating message rows")
	}
	return out, nil
}

func (s *Store) InsertGame(ctx context.Context, g *repo.Game) error {
	const query = `
		INSERT INTO games (id, status, white_id, black_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.Exec(ctx, query, g.ID, g.Status, g.WhiteID, g.BlackID, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return chesserr.Wrap(chesserr.KindTransactionFailed, err, "inserting game %s", g.ID)
	}
	return nil
}

func (s *Store) InsertMessage(ctx context.Context, m *repo.StoredMessage) error {
	const query = `
		INSERT INTO messages (id, game_id, message_type, content, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.Exec(ctx, query, m.ID, m.GameID, m.Type, m.Content, m.Timestamp)
	if err != nil {
		return chesserr.Wrap(chesserr.KindTransactionFailed, err, "inserting message %s", m.ID)
	}
	return nil
}
