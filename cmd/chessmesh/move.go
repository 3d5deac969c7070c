package main

import (
	"context"
	"fmt"

	"github.com/chessmesh/chessmesh/chessmsg"
	"github.com/chessmesh/chessmesh/client"
	"github.com/chessmesh/chessmesh/identity"
	"github.com/chessmesh/chessmesh/internal/config"
	"github.com/chessmesh/chessmesh/wire"
	"github.com/spf13/cobra"
)

var (
	moveNotation   string
	moveGameInput  string
	moveBoardHash  string
	moveConfigPath string
)

var moveCmd = &cobra.Command{
	Use:   "move <addr>",
	Short: "Send a validated move to a peer",
	Args:  cobra.ExactArgs(1),
	Example: `  chessmesh move 127.0.0.1:7890 --move e2e4 --board-hash <64-hex> --game abc123
  chessmesh move 127.0.0.1:7890 --move O-O   # resolves the most recently updated active game`,
	RunE: runMove,
}

func init() {
	rootCmd.AddCommand(moveCmd)
	moveCmd.Flags().StringVar(&moveNotation, "move", "", "Move in coordinate or castling notation, e.g. e2e4, e7e8q, O-O")
	moveCmd.Flags().StringVar(&moveGameInput, "game", "", "Game id, or a unique prefix of one; omit to use the most recently updated active game")
	moveCmd.Flags().StringVar(&moveBoardHash, "board-hash", "", "Expected post-move board state hash (64 hex characters)")
	moveCmd.Flags().StringVar(&moveConfigPath, "config", "chessmesh.yaml", "YAML config file (selects the local repository backend)")
	moveCmd.MarkFlagRequired("move")
	moveCmd.MarkFlagRequired("board-hash")
}

func runMove(cmd *cobra.Command, args []string) error {
	addr, err := ValidatePeerAddress(args[0])
	if err != nil {
		return err
	}
	notation, err := chessmsg.NormalizeMove(moveNotation)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.LoaderOptions{ConfigPath: moveConfigPath, DotEnvPath: ".env"})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	store, closeStore, err := openRepository(cfg.Repository)
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}
	defer closeStore()

	gameID, err := ResolveGameID(context.Background(), store, moveGameInput)
	if err != nil {
		return err
	}

	path, err := expandPath(keyPath)
	if err != nil {
		return err
	}
	id, err := identity.LoadOrGenerate(path)
	if err != nil {
		return fmt.Errorf("loading identity: %w", err)
	}

	c := client.New(id, wire.DefaultConfig())
	reply, err := c.SendMessageTo(addr, chessmsg.Move(gameID.String(), notation, moveBoardHash))
	if err != nil {
		return fmt.Errorf("sending move to %s: %w", addr, err)
	}
	fmt.Printf("sent %s for game %s to %s, reply kind %s\n", notation, gameID, addr, reply.Kind)
	return nil
}
