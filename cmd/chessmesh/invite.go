package main

import (
	"context"
	"fmt"
	"time"

	"github.com/chessmesh/chessmesh/chessmsg"
	"github.com/chessmesh/chessmesh/client"
	"github.com/chessmesh/chessmesh/identity"
	"github.com/chessmesh/chessmesh/internal/config"
	"github.com/chessmesh/chessmesh/repo"
	"github.com/chessmesh/chessmesh/wire"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	inviteColor      string
	inviteConfigPath string
)

var inviteCmd = &cobra.Command{
	Use:   "invite <addr>",
	Short: "Create a game and send a GameInvite to a peer",
	Args:  cobra.ExactArgs(1),
	Example: `  chessmesh invite 127.0.0.1:7890 --color white
  chessmesh invite 127.0.0.1:7890 --color random`,
	RunE: runInvite,
}

func init() {
	rootCmd.AddCommand(inviteCmd)
	inviteCmd.Flags().StringVar(&inviteColor, "color", "random", "Suggested color: white, black, or random")
	inviteCmd.Flags().StringVar(&inviteConfigPath, "config", "chessmesh.yaml", "YAML config file (selects the local repository backend)")
}

func runInvite(cmd *cobra.Command, args []string) error {
	addr, err := ValidatePeerAddress(args[0])
	if err != nil {
		return err
	}
	color, err := chessmsg.ParseColor(inviteColor)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.LoaderOptions{ConfigPath: inviteConfigPath, DotEnvPath: ".env"})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	store, closeStore, err := openRepository(cfg.Repository)
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}
	defer closeStore()

	path, err := expandPath(keyPath)
	if err != nil {
		return err
	}
	id, err := identity.LoadOrGenerate(path)
	if err != nil {
		return fmt.Errorf("loading identity: %w", err)
	}

	now := time.Now()
	game := &repo.Game{
		ID:        uuid.New(),
		Status:    repo.StatusPending,
		WhiteID:   id.PeerID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.InsertGame(context.Background(), game); err != nil {
		return fmt.Errorf("recording game locally: %w", err)
	}

	c := client.New(id, wire.DefaultConfig())
	reply, err := c.SendMessageTo(addr, chessmsg.GameInvite(game.ID.String(), color))
	if err != nil {
		return fmt.Errorf("sending invite to %s: %w", addr, err)
	}
	fmt.Printf("invited %s to game %s (suggested color %s), reply kind %s\n", addr, game.ID, color, reply.Kind)
	return nil
}
