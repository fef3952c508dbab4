//go:build unix

// Package socketopts applies the small set of socket options this server
// actually needs: SO_REUSEADDR on the listener so a restart can rebind
// without waiting out TIME_WAIT, and TCP_NODELAY on each accepted
// connection since every response here is a single unbuffered write with
// nothing to gain from Nagle's algorithm. TCP Fast Open, deferred accept
// and quick-ACK tuning are deliberately not applied: they target
// keep-alive workloads this server's close-per-response model doesn't
// have.
package socketopts

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// ListenConfig returns a net.ListenConfig whose Control hook sets
// SO_REUSEADDR on the listening socket before bind(2) is called.
func ListenConfig() net.ListenConfig {
	return net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
}

// TuneAccepted sets TCP_NODELAY on an accepted connection. Non-TCP
// connections (not expected in production, common in tests using
// net.Pipe) are left untouched.
func TuneAccepted(conn net.Conn) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	_ = tc.SetNoDelay(true)
}
