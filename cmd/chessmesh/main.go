// chessmesh - peer-to-peer authenticated chess messaging
// Copyright (C) 2025 chessmesh contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Command chessmesh is the reference peer: key management, a serving
// daemon, and a one-shot connect/ping client.
package main

import (
	"fmt"
	"os"

	"github.com/chessmesh/chessmesh/cmd/chessmesh/internal/present"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chessmesh",
	Short: "chessmesh peer - identity, server, and client commands",
	Long: `chessmesh is the reference implementation of the chessmesh wire
protocol: a peer-to-peer, Ed25519-authenticated chess messaging system.

This tool supports:
- Identity key generation and inspection
- Running the accept-loop server
- Connecting to a peer and exchanging a ping
- Inviting a peer to a game and sending moves, with fuzzy game id
  resolution and peer-address validation`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", present.Error(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Commands are registered in their respective files:
	// - key.go: keyCmd (generate, info, path)
	// - serve.go: serveCmd
	// - connect.go: connectCmd
	// - invite.go: inviteCmd
	// - move.go: moveCmd
}
