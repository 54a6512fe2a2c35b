// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"

	"github.com/ezrec/patdev/device"
	"github.com/ezrec/patdev/script"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %v [flags] write <text> | read | stream <n> | script <file>\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	var control string
	var data string

	flag.StringVar(&control, "c", "patdev-control.sock", "Control socket path")
	flag.StringVar(&data, "d", "patdev-data.sock", "Data socket path")
	flag.Usage = usage

	flag.Parse()

	if flag.NArg() == 0 {
		usage()
	}

	var err error
	switch flag.Arg(0) {
	case "write":
		err = doWrite(control, strings.Join(flag.Args()[1:], " "))
	case "read":
		err = doRead(control)
	case "stream":
		if flag.NArg() != 2 {
			usage()
		}
		var length int64
		_, err = fmt.Sscan(flag.Arg(1), &length)
		if err == nil {
			err = doStream(data, length)
		}
	case "script":
		if flag.NArg() != 2 {
			usage()
		}
		err = doScript(flag.Arg(1))
	default:
		usage()
	}

	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
}

// doWrite replaces the pattern. Empty text reads the payload from stdin.
func doWrite(path string, text string) (err error) {
	payload := []byte(text)
	if len(payload) == 0 {
		payload, err = io.ReadAll(io.LimitReader(os.Stdin, device.MaxPattern))
		if err != nil {
			return
		}
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		return
	}
	defer conn.Close()

	if _, err = conn.Write(payload); err != nil {
		return
	}
	if err = conn.(*net.UnixConn).CloseWrite(); err != nil {
		return
	}

	// Wait for the server to commit the replace and close.
	one := make([]byte, 1)
	conn.Read(one)

	return
}

// doRead prints the current pattern once.
func doRead(path string) (err error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return
	}
	defer conn.Close()

	if err = conn.(*net.UnixConn).CloseWrite(); err != nil {
		return
	}

	_, err = io.Copy(os.Stdout, conn)
	return
}

// doStream copies length bytes of the repeating pattern to stdout. An
// immediate end of stream means the pattern is empty; a session refused
// with no bytes at all means the device is busy.
func doStream(path string, length int64) (err error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return
	}
	defer conn.Close()

	_, err = io.CopyN(os.Stdout, conn, length)
	if err == io.EOF {
		err = nil
	}
	return
}

// doScript runs a Starlark scenario against a fresh in-process device.
func doScript(path string) (err error) {
	run := script.NewRunner(device.New())
	return run.Run(path, nil)
}
