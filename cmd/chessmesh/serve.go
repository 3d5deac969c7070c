package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/chessmesh/chessmesh/chessmsg"
	"github.com/chessmesh/chessmesh/identity"
	"github.com/chessmesh/chessmesh/internal/config"
	"github.com/chessmesh/chessmesh/internal/health"
	"github.com/chessmesh/chessmesh/internal/logger"
	"github.com/chessmesh/chessmesh/internal/metrics"
	"github.com/chessmesh/chessmesh/repo"
	"github.com/chessmesh/chessmesh/server"
	"github.com/chessmesh/chessmesh/transport"
	"github.com/chessmesh/chessmesh/wire"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	serveConfigPath string
	serveBindAddr   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chessmesh accept-loop server",
	Example: `  # Serve using chessmesh.yaml / CHESSMESH_* overrides
  chessmesh serve

  # Override the bind address
  chessmesh serve --bind 0.0.0.0:7890`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "chessmesh.yaml", "YAML config file")
	serveCmd.Flags().StringVar(&serveBindAddr, "bind", "", "Override the configured bind address")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoaderOptions{ConfigPath: serveConfigPath, DotEnvPath: ".env"})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if serveBindAddr != "" {
		cfg.Server.BindAddr = serveBindAddr
	}

	keyPath, err := expandPath(cfg.Identity.KeyPath)
	if err != nil {
		return err
	}
	id, err := identity.LoadOrGenerate(keyPath)
	if err != nil {
		return fmt.Errorf("loading identity: %w", err)
	}
	logger.Info("identity loaded", logger.String("peer_id", id.PeerID()), logger.String("key_path", keyPath))

	store, closeStore, err := openRepository(cfg.Repository)
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}
	defer closeStore()

	listener, err := net.Listen("tcp", cfg.Server.BindAddr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", cfg.Server.BindAddr, err)
	}
	defer listener.Close()

	wireCfg := wire.Config{
		MaxMessageSize: cfg.Wire.MaxMessageSize,
		ReadTimeout:    cfg.Wire.ReadTimeout,
		WriteTimeout:   cfg.Wire.WriteTimeout,
	}

	srv := server.New(listener, server.Config{
		Identity:       id,
		Wire:           wireCfg,
		MaxConnections: cfg.Server.MaxConnections,
		Dispatcher:     server.DispatcherFunc(dispatcherFor(store)),
	})
	srv.Health().Register("repository", health.RepositoryCheck(store.Ping))

	if cfg.Metrics.Enabled {
		go func() {
			logger.Info("metrics endpoint starting", logger.String("addr", cfg.Metrics.Addr))
			if err := metrics.StartServer(cfg.Metrics.Addr); err != nil {
				logger.Warn("metrics endpoint stopped", logger.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("server listening", logger.String("addr", cfg.Server.BindAddr))
	return srv.Serve(ctx)
}

// dispatcherFor persists every application message the server's Ping-echo
// loop does not already answer, tagging storage failures without closing
// the connection — a write failure is the operator's problem, not the
// peer's.
func dispatcherFor(store repo.Repository) func(conn *transport.Connection, msg chessmsg.Message, sender string) {
	return func(conn *transport.Connection, msg chessmsg.Message, sender string) {
		gameID, err := uuid.Parse(msg.GameID)
		if err != nil {
			logger.Warn("dropping message with unparseable game id", logger.String("game_id", msg.GameID), logger.Error(err))
			return
		}
		content, err := json.Marshal(msg)
		if err != nil {
			logger.Warn("failed to marshal message for storage", logger.Error(err))
			return
		}
		stored := &repo.StoredMessage{
			ID:        uuid.New(),
			GameID:    gameID,
			Type:      string(msg.Kind),
			Content:   content,
			Timestamp: time.Now(),
		}
		if err := store.InsertMessage(context.Background(), stored); err != nil {
			logger.Warn("failed to persist message", logger.String("sender", sender), logger.Error(err))
		}
	}
}
