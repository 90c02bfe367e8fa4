// Package transport provides abstractions for network connection
// establishment.  The IRC session asks a Dialer for a socket and does
// not care whether it is a direct TCP connection or one forwarded
// through an SSH gateway.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound network connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}

// noDelayer is implemented by *net.TCPConn.
type noDelayer interface {
	SetNoDelay(noDelay bool) error
}

// DisableNagle turns off small-packet coalescing when conn supports
// it, so PONG replies and chat lines leave immediately.  Connections
// without the option (SSH channels, pipes) are left untouched.
func DisableNagle(conn net.Conn) error {
	if nd, ok := conn.(noDelayer); ok {
		return nd.SetNoDelay(true)
	}
	return nil
}
