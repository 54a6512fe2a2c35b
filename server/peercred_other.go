//go:build !linux

package server

import (
	"net"
)

// peerString describes the far end of a connection for log output.
// Peer credentials are only available on Linux.
func peerString(conn net.Conn) string {
	return f("peer %v", conn.RemoteAddr())
}
