package client

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/chessmesh/chessmesh/chesserr"
)

func randomNonce() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, chesserr.Wrap(chesserr.KindIO, err, "generating ping nonce")
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
