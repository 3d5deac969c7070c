package main

import (
	"context"
	"strings"

	"github.com/chessmesh/chessmesh/chesserr"
	"github.com/chessmesh/chessmesh/repo"
	"github.com/google/uuid"
)

// ResolveGameID implements the CLI's fuzzy game id resolution, grounded on
// the original CLI's validate_and_resolve_game_id / get_most_recent_game_id:
// an empty input resolves to the most recently updated active game, a full
// UUID resolves directly if it names an active game, and anything else is
// matched as a case-insensitive prefix (or, for inputs of 6+ characters, a
// substring) against active games' ids. Zero matches and multiple matches
// both produce an actionable error rather than a bare "not found".
func ResolveGameID(ctx context.Context, store repo.Repository, input string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(input)

	games, err := store.GetGamesByStatus(ctx, repo.StatusActive)
	if err != nil {
		return uuid.Nil, chesserr.Wrap(chesserr.KindNotFound, err, "listing active games")
	}
	if len(games) == 0 {
		return uuid.Nil, chesserr.New(chesserr.KindNotFound, "no active games found; start one with the invite command first")
	}

	if trimmed == "" {
		return mostRecentlyUpdated(games).ID, nil
	}

	if exact, err := uuid.Parse(trimmed); err == nil {
		for _, g := range games {
			if g.ID == exact {
				return exact, nil
			}
		}
	}

	lower := strings.ToLower(trimmed)
	var matches []*repo.Game
	for _, g := range games {
		id := strings.ToLower(g.ID.String())
		if strings.HasPrefix(id, lower) || (len(lower) >= 6 && strings.Contains(id, lower)) {
			matches = append(matches, g)
		}
	}

	switch len(matches) {
	case 0:
		return uuid.Nil, chesserr.New(chesserr.KindNotFound, "no active game matches %q; check the id and try again", trimmed).
			WithField("input", trimmed)
	case 1:
		return matches[0].ID, nil
	default:
		ids := make([]string, len(matches))
		for i, g := range matches {
			ids[i] = g.ID.String()
		}
		return uuid.Nil, chesserr.New(chesserr.KindInvalidGameID, "%q matches multiple active games (%s); supply more of the id", trimmed, strings.Join(ids, ", ")).
			WithField("input", trimmed).WithField("matches", ids)
	}
}

func mostRecentlyUpdated(games []*repo.Game) *repo.Game {
	most := games[0]
	for _, g := range games[1:] {
		if g.UpdatedAt.After(most.UpdatedAt) {
			most = g
		}
	}
	return most
}
