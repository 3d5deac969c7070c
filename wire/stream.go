package wire

import (
	"io"
	"net"
	"time"
)

// Stream is the byte-stream abstraction the framed wire reads and writes.
// net.Conn satisfies it directly; tests substitute fakes that control
// exactly how many bytes each Read/Write call accepts, to exercise partial
// I/O resumption.
type Stream interface {
	io.Reader
	io.Writer
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

var _ Stream = (net.Conn)(nil)
