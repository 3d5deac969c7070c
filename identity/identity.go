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

// Package identity provides the long-lived Ed25519 signing keypair and the
// derived peer id every other chessmesh component treats as the principal.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/chessmesh/chessmesh/chesserr"
)

// filePerm is the owner-only permission required of a persisted key file.
const filePerm = 0o600

// Identity is an immutable record holding a signing keypair and the peer id
// deterministically derived from the public key. It is created once per
// installation and safely shared by pointer across goroutines; nothing
// mutates it after construction.
type Identity struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
	peerID  string
}

// Generate creates a brand new Ed25519 identity.
func Generate() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, chesserr.Wrap(chesserr.KindIO, err, "generating ed25519 keypair")
	}
	return fromKeys(pub, priv), nil
}

func fromKeys(pub ed25519.PublicKey, priv ed25519.PrivateKey) *Identity {
	return &Identity{
		public:  pub,
		private: priv,
		peerID:  derivePeerID(pub),
	}
}

// derivePeerID returns the stable, printable, collision-resistant textual
// identifier for a public key: unpadded URL-safe base64 of the raw 32 bytes.
func derivePeerID(pub ed25519.PublicKey) string {
	return base64.RawURLEncoding.EncodeToString(pub)
}

// PeerID returns the identity's textual peer id.
func (id *Identity) PeerID() string { return id.peerID }

// PublicKey returns the raw Ed25519 public key.
func (id *Identity) PublicKey() ed25519.PublicKey { return id.public }

// Sign signs message with the identity's private key.
func (id *Identity) Sign(message []byte) []byte {
	return ed25519.Sign(id.private, message)
}

// Verify checks that signature was produced by the holder of pub over message.
func Verify(pub ed25519.PublicKey, message, signature []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, message, signature)
}

// PublicKeyFromPeerID decodes the public key embedded in a peer id, failing
// if the id does not decode to exactly one Ed25519 public key's worth of bytes.
func PublicKeyFromPeerID(peerID string) (ed25519.PublicKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(peerID)
	if err != nil {
		return nil, chesserr.Wrap(chesserr.KindInvalidSignature, err, "decoding peer id %q", peerID)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, chesserr.New(chesserr.KindInvalidSignature, "peer id %q does not encode an ed25519 public key", peerID)
	}
	return ed25519.PublicKey(raw), nil
}

// Save persists the identity's private key to path with owner-only
// permissions. It is the caller's responsibility to choose a path inside a
// directory the operator controls.
func (id *Identity) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return chesserr.Wrap(chesserr.KindIO, err, "creating key directory for %s", path)
	}
	if err := os.WriteFile(path, id.private, filePerm); err != nil {
		return chesserr.Wrap(chesserr.KindIO, err, "writing identity key to %s", path)
	}
	return nil
}

// Load reads a persisted identity from path, rejecting files with
// permissions wider than owner read/write on POSIX systems.
func Load(path string) (*Identity, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, chesserr.Wrap(chesserr.KindIO, err, "statting identity key %s", path)
	}
	if runtime.GOOS != "windows" {
		if mode := info.Mode().Perm(); mode&0o077 != 0 {
			return nil, chesserr.New(chesserr.KindConfiguration,
				"identity key %s has permissions %#o, expected owner-only (0600)", path, mode).
				WithField("path", path)
		}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, chesserr.Wrap(chesserr.KindIO, err, "reading identity key %s", path)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, chesserr.New(chesserr.KindInvalidData,
			"identity key %s has unexpected length %d, expected %d", path, len(raw), ed25519.PrivateKeySize)
	}
	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)
	return fromKeys(pub, priv), nil
}

// LoadOrGenerate loads the identity at path if present, otherwise generates
// and persists a fresh one.
func LoadOrGenerate(path string) (*Identity, error) {
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	} else if !os.IsNotExist(err) {
		return nil, chesserr.Wrap(chesserr.KindIO, err, "statting identity key %s", path)
	}
	id, err := Generate()
	if err != nil {
		return nil, err
	}
	if err := id.Save(path); err != nil {
		return nil, err
	}
	return id, nil
}

// String renders a short, human-readable summary for logs/CLI output.
func (id *Identity) String() string {
	return fmt.Sprintf("Identity{peer_id=%s}", id.peerID)
}
