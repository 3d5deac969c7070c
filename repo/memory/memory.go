// Package memory implements repo.Repository with an in-process map behind
// an RWMutex, for tests and single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/chessmesh/chessmesh/chesserr"
	"github.com/chessmesh/chessmesh/repo"
	"github.com/google/uuid"
)

// Store is an in-memory repo.Repository. Reads take the read lock; writes
// take the write lock. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	games    map[uuid.UUID]*repo.Game
	messages map[uuid.UUID][]*repo.StoredMessage // keyed by game id
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		games:    make(map[uuid.UUID]*repo.Game),
		messages: make(map[uuid.UUID][]*repo.StoredMessage),
	}
}

var _ repo.Repository = (*Store)(nil)

func (s *Store) GetGame(_ context.Context, id uuid.UUID) (*repo.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[id]
	if !ok {
		return nil, chesserr.New(chesserr.KindNotFound, "game %s not found", id).WithField("game_id", id)
	}
	gCopy := *g
	return &gCopy, nil
}

func (s *Store) GetAllGames(_ context.Context) ([]*repo.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*repo.Game, 0, len(s.games))
	for _, g := range s.games {
		gCopy := *g
		out = append(out, &gCopy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) GetGamesByStatus(_ context.Context, status repo.GameStatus) ([]*repo.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*repo.Game
	for _, g := range s.games {
		if g.Status == status {
			gCopy := *g
			out = append(out, &gCopy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) GetMessagesForGame(_ context.Context, id uuid.UUID) ([]*repo.StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[id]
	out := make([]*repo.StoredMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *Store) InsertGame(_ context.Context, g *repo.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == uuid.Nil {
		return chesserr.New(chesserr.KindInvalidData, "game id must not be the nil UUID")
	}
	stored := *g
	s.games[g.ID] = &stored
	return nil
}

func (s *Store) InsertMessage(_ context.Context, m *repo.StoredMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[m.GameID]; !ok {
		return chesserr.New(chesserr.KindNotFound, "game %s not found for message insert", m.GameID).
			WithField("game_id", m.GameID)
	}
	stored := *m
	s.messages[m.GameID] = append(s.messages[m.GameID], &stored)
	return nil
}
