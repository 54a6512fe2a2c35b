//go:build linux

package server

import (
	"net"

	"golang.org/x/sys/unix"
)

// peerString describes the process on the far end of a Unix socket
// connection, for log output. Identity is informational only; nothing
// is authorized by it.
func peerString(conn net.Conn) string {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return conn.RemoteAddr().String()
	}

	raw, err := uc.SyscallConn()
	if err != nil {
		return f("peer unknown (%v)", err)
	}

	var cred *unix.Ucred
	cerr := raw.Control(func(fd uintptr) {
		cred, err = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if cerr != nil {
		err = cerr
	}
	if err != nil || cred == nil {
		return f("peer unknown (%v)", err)
	}

	return f("pid %d uid %d", cred.Pid, cred.Uid)
}
