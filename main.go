// ABOUTME: Entry point for the WaveTap player
// ABOUTME: Parses CLI flags, wires the engine, scope server and TUI
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wavetap/wavetap-go/internal/decode"
	"github.com/wavetap/wavetap-go/internal/discovery"
	"github.com/wavetap/wavetap-go/internal/engine"
	"github.com/wavetap/wavetap-go/internal/scope"
	"github.com/wavetap/wavetap-go/internal/server"
	"github.com/wavetap/wavetap-go/internal/ui"
	"github.com/wavetap/wavetap-go/internal/version"
)

var (
	scopeSize = flag.Int("scope-size", scope.DefaultSize, "Scope snapshot size in samples")
	tickMs    = flag.Int("tick-ms", 25, "Scope prune interval in milliseconds")
	startAt   = flag.Duration("start-at", 0, "Start playback at this offset (e.g. 1m30s)")
	volume    = flag.Int("volume", 100, "Initial volume (0-100)")
	serveAddr = flag.String("serve", "", "Scope WebSocket server address (e.g. :8937); empty disables")
	noMDNS    = flag.Bool("no-mdns", false, "Do not advertise the scope server via mDNS")
	logFile   = flag.String("log-file", "wavetap.log", "Log file path")
	noTUI     = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <audio file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	if !decode.CanDecode(path) {
		fmt.Fprintf(os.Stderr, "cannot play %s: unsupported or unreadable file\n", path)
		os.Exit(1)
	}

	ended := make(chan struct{}, 1)
	notifyEnded := func() {
		select {
		case ended <- struct{}{}:
		default:
		}
	}

	eng := engine.New(engine.Config{
		ScopeSize:    *scopeSize,
		TickInterval: time.Duration(*tickMs) * time.Millisecond,
		OnTrackEnded: notifyEnded,
		OnError: func(err error) {
			log.Printf("Playback error: %v", err)
			notifyEnded()
		},
	})
	defer eng.Close()

	if err := eng.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", path, err)
		os.Exit(1)
	}
	eng.SetVolume(*volume)

	// Scope streaming server for external visualizers
	if *serveAddr != "" {
		srv := server.New(server.Config{Addr: *serveAddr}, eng)
		if err := srv.Start(); err != nil {
			log.Fatalf("Failed to start scope server: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()

		if !*noMDNS {
			hostname, err := os.Hostname()
			if err != nil {
				hostname = "unknown"
			}
			adv := discovery.NewAdvertiser(discovery.Config{
				ServiceName: fmt.Sprintf("%s-wavetap", hostname),
				Port:        srv.Port(),
			})
			if err := adv.Advertise(); err != nil {
				log.Printf("mDNS advertisement failed: %v", err)
			} else {
				defer adv.Stop()
			}
		}
	}

	if err := eng.Play(*startAt); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start playback: %v\n", err)
		os.Exit(1)
	}

	if useTUI {
		if err := ui.Run(eng); err != nil {
			log.Printf("TUI error: %v", err)
		}
		return
	}

	// Headless: run until the track ends or we get a signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ended:
		log.Printf("Track finished")
	case s := <-sig:
		log.Printf("Received %v, shutting down", s)
	}
}
