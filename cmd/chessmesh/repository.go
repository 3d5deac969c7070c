package main

import (
	"context"
	"fmt"

	"github.com/chessmesh/chessmesh/internal/config"
	"github.com/chessmesh/chessmesh/repo"
	"github.com/chessmesh/chessmesh/repo/memory"
	"github.com/chessmesh/chessmesh/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pingableRepository is what both the server's health check and the CLI's
// game-id resolution need from the configured backend.
type pingableRepository interface {
	repo.Repository
	Ping(context.Context) error
}

// openRepository opens the backend cfg selects, shared by serve, invite, and
// move so a single chessmesh.yaml picks the store every command resolves
// game ids against.
func openRepository(cfg config.RepositoryConfig) (pingableRepository, func(), error) {
	switch cfg.Backend {
	case "postgres":
		pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
		if err != nil {
			return nil, func() {}, err
		}
		return pingingStore{postgres.New(pool), pool.Ping}, pool.Close, nil
	case "memory", "":
		store := memory.New()
		return pingingStore{store, func(context.Context) error { return nil }}, func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown repository backend %q", cfg.Backend)
	}
}

// pingingStore adapts a repo.Repository plus an independent liveness probe
// to pingableRepository, since neither repo/memory.Store nor
// repo/postgres.Store exposes Ping itself.
type pingingStore struct {
	repo.Repository
	ping func(context.Context) error
}

func (p pingingStore) Ping(ctx context.Context) error { return p.ping(ctx) }
