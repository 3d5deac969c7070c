package server

import (
	"errors"
	"io"

	"github.com/chessmesh/chessmesh/chesserr"
)

// isTimeout reports whether err is a read timeout, which spec.md §4.6 says
// is not fatal: the message loop continues.
func isTimeout(err error) bool {
	ce, ok := chesserr.As(err)
	return ok && ce.Kind == chesserr.KindTimeout
}

// isClosed reports whether err indicates the remote end closed the stream,
// cleanly (io.EOF) or mid-frame (KindUnexpectedEOF).
func isClosed(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	ce, ok := chesserr.As(err)
	return ok && ce.Kind == chesserr.KindUnexpectedEOF
}
