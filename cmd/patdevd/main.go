// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ezrec/patdev/device"
	"github.com/ezrec/patdev/server"
)

func main() {
	var control string
	var data string
	var pattern string
	var verbose bool

	flag.StringVar(&control, "c", "patdev-control.sock", "Control socket path")
	flag.StringVar(&data, "d", "patdev-data.sock", "Data socket path")
	flag.StringVar(&pattern, "p", "", "Pattern file to load and watch")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	dev := device.New()

	if len(pattern) != 0 {
		watcher, err := server.WatchPattern(dev, pattern)
		if err != nil {
			log.Fatalf("%v: %v", pattern, err)
		}
		defer watcher.Close()
	}

	srv := server.New(dev, server.Config{
		ControlPath: control,
		DataPath:    data,
		Verbose:     verbose,
	})

	if err := srv.Register(); err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
	srv.Serve()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	srv.Close()
}
