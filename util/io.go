package util

import (
	"errors"
	"io"
	"net"
)

// DefaultBufSize is the read buffer size for a session socket (4 KiB,
// comfortably above the 512-byte IRC line limit).
const DefaultBufSize = 4 * 1024

// IsClosedErr reports whether err is one of the errors a socket returns
// when it has been closed by either side: EOF, net.ErrClosed, a closed
// pipe, or a net.OpError wrapping one of those.
func IsClosedErr(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
