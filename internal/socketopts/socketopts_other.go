//go:build !unix

package socketopts

import "net"

// ListenConfig returns the zero-value net.ListenConfig on platforms where
// this package doesn't apply SO_REUSEADDR explicitly; net.Listen's own
// platform defaults still apply.
func ListenConfig() net.ListenConfig {
	return net.ListenConfig{}
}

// TuneAccepted is a no-op on platforms without the unix socket option
// wiring above.
func TuneAccepted(conn net.Conn) {}
