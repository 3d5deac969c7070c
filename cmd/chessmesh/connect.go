package main

import (
	"fmt"
	"time"

	"github.com/chessmesh/chessmesh/client"
	"github.com/chessmesh/chessmesh/identity"
	"github.com/chessmesh/chessmesh/wire"
	"github.com/spf13/cobra"
)

var connectPayload string

var connectCmd = &cobra.Command{
	Use:   "connect <addr>",
	Short: "Connect to a peer, complete the handshake, and ping it",
	Args:  cobra.ExactArgs(1),
	Example: `  chessmesh connect 127.0.0.1:7890
  chessmesh connect --payload hello 127.0.0.1:7890`,
	RunE: runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)
	connectCmd.Flags().StringVar(&connectPayload, "payload", "ping", "Payload to echo in the ping")
}

func runConnect(cmd *cobra.Command, args []string) error {
	addr, err := ValidatePeerAddress(args[0])
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

	started := time.Now()
	if err := c.Ping(addr, connectPayload); err != nil {
		return fmt.Errorf("ping %s: %w", addr, err)
	}
	fmt.Printf("%s replied in %s\n", addr, time.Since(started))
	return nil
}
