// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package server registers the device's two access points with the host
// as Unix domain sockets. A control connection that sends bytes and
// closes performs one full-replace pattern write; one that sends
// nothing is answered with the current pattern once. A data connection
// claims the exclusive session and is streamed the repeating pattern
// until it disconnects; while the session is held, further data
// connections are refused.
package server

import (
	"errors"
	"io"
	"log"
	"net"
	"sync"

	"github.com/ezrec/patdev/device"
)

// streamChunk is the write granularity of the data stream. Every chunk
// is one self-contained projection starting at pattern index 0.
const streamChunk = 4 * device.MaxPattern

// Config names the two access points.
type Config struct {
	ControlPath string // Control socket path.
	DataPath    string // Data socket path.
	Verbose     bool   // If set, logs per-connection activity.
}

// Server owns the listeners for both access points of a single device.
type Server struct {
	dev *device.Device
	cfg Config

	controlLn net.Listener
	dataLn    net.Listener

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	wg sync.WaitGroup
}

// New creates a server for dev. Nothing is registered until Register.
func New(dev *device.Device, cfg Config) (srv *Server) {
	srv = &Server{
		dev:   dev,
		cfg:   cfg,
		conns: make(map[net.Conn]struct{}),
	}
	return
}

// Register creates both endpoints in order: control, then data. If a
// step fails, everything already registered is unwound in reverse order
// and a RegisterError naming the failing step is returned.
func (srv *Server) Register() (err error) {
	srv.controlLn, err = net.Listen("unix", srv.cfg.ControlPath)
	if err != nil {
		return &RegisterError{Step: StepControl, Err: err}
	}
	log.Print(f("patdev: control endpoint at %v", srv.cfg.ControlPath))

	srv.dataLn, err = net.Listen("unix", srv.cfg.DataPath)
	if err != nil {
		srv.controlLn.Close()
		srv.controlLn = nil
		return &RegisterError{Step: StepData, Err: err}
	}
	log.Print(f("patdev: data endpoint at %v", srv.cfg.DataPath))

	return
}

// Serve starts the accept loops for both endpoints and returns. Use
// Close to stop them.
func (srv *Server) Serve() {
	srv.wg.Add(2)
	go srv.acceptLoop(srv.controlLn, srv.serveControl)
	go srv.acceptLoop(srv.dataLn, srv.serveData)
}

// Close tears the endpoints down in reverse of their creation order:
// control endpoint first, then any live data session, then the data
// endpoint. Teardown is best effort; failures are logged, not returned,
// since teardown cannot be retried.
func (srv *Server) Close() error {
	if srv.controlLn != nil {
		if err := srv.controlLn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Print(f("patdev: control teardown: %v", err))
		}
		srv.controlLn = nil
	}

	srv.mu.Lock()
	for conn := range srv.conns {
		conn.Close()
	}
	srv.mu.Unlock()

	if srv.dataLn != nil {
		if err := srv.dataLn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Print(f("patdev: data teardown: %v", err))
		}
		srv.dataLn = nil
	}

	srv.wg.Wait()
	return nil
}

func (srv *Server) acceptLoop(ln net.Listener, serve func(net.Conn)) {
	defer srv.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}

		srv.track(conn)
		srv.wg.Add(1)
		go func() {
			defer srv.wg.Done()
			defer srv.untrack(conn)
			serve(conn)
		}()
	}
}

func (srv *Server) track(conn net.Conn) {
	srv.mu.Lock()
	srv.conns[conn] = struct{}{}
	srv.mu.Unlock()
}

func (srv *Server) untrack(conn net.Conn) {
	srv.mu.Lock()
	delete(srv.conns, conn)
	srv.mu.Unlock()
}

// serveControl handles one control connection: bytes received before
// the peer closes its write side are one pattern replace; an empty
// request is answered with the pattern once.
func (srv *Server) serveControl(conn net.Conn) {
	defer conn.Close()

	peer := peerString(conn)
	if srv.cfg.Verbose {
		log.Print(f("patdev: control connection from %v", peer))
	}

	// The store truncates to MaxPattern-1 regardless; reading one byte
	// beyond that is enough to hand truncation off to it.
	data, err := io.ReadAll(io.LimitReader(conn, device.MaxPattern))
	if err != nil {
		log.Print(f("patdev: control read from %v: %v", peer, err))
		return
	}

	ctl := srv.dev.OpenControl()

	if len(data) == 0 {
		if sent, err := io.Copy(conn, ctl); err != nil {
			log.Print(f("patdev: control reply to %v: %v", peer,
				&device.FaultError{Written: int(sent), Err: err}))
		}
		return
	}

	ctl.Write(data)
}

// serveData handles one data connection as one exclusive session.
func (srv *Server) serveData(conn net.Conn) {
	defer conn.Close()

	peer := peerString(conn)

	sess, err := srv.dev.OpenData()
	if err != nil {
		// Refused: the immediate close is the busy signal.
		log.Print(f("patdev: data open from %v: %v", peer, err))
		return
	}
	defer sess.Close()

	log.Print(f("patdev: session %v opened by %v", sess.ID, peer))
	defer log.Print(f("patdev: session %v closed", sess.ID))

	// Inbound bytes land on the session's accept-and-discard write.
	go func() {
		buf := make([]byte, 512)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				sess.Write(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()

	buf := make([]byte, streamChunk)
	for {
		n, err := sess.Read(buf)
		if err == io.EOF {
			// Empty pattern: nothing to read, end of stream.
			return
		}

		sent, err := conn.Write(buf[:n])
		if err != nil {
			if srv.cfg.Verbose {
				log.Print(f("patdev: session %v: %v", sess.ID,
					&device.FaultError{Written: sent, Err: err}))
			}
			return
		}
	}
}
