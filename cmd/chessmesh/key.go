package main

import (
	"fmt"

	"github.com/chessmesh/chessmesh/identity"
	"github.com/spf13/cobra"
)

var keyPath string

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the installation's Ed25519 identity key",
}

var keyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new identity key, overwriting any existing one",
	Example: `  # Generate a key at the default location
  chessmesh key generate

  # Generate a key at a custom path
  chessmesh key generate --key ./dev.key`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := expandPath(keyPath)
		if err != nil {
			return err
		}
		id, err := identity.Generate()
		if err != nil {
			return fmt.Errorf("generating identity: %w", err)
		}
		if err := id.Save(path); err != nil {
			return fmt.Errorf("saving identity to %s: %w", path, err)
		}
		fmt.Printf("generated identity %s\nsaved to %s\n", id.PeerID(), path)
		return nil
	},
}

var keyInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the peer id for the installation's identity key",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := expandPath(keyPath)
		if err != nil {
			return err
		}
		id, err := identity.Load(path)
		if err != nil {
			return fmt.Errorf("loading identity from %s: %w", path, err)
		}
		fmt.Println(id.PeerID())
		return nil
	},
}

var keyPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the resolved identity key path without touching it",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := expandPath(keyPath)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keyGenerateCmd, keyInfoCmd, keyPathCmd)
	rootCmd.PersistentFlags().StringVarP(&keyPath, "key", "k", "~/.chessmesh/identity.key", "Identity key path")
}
