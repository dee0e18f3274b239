// Command latch-entry runs the credential reader station of a LATCH
// installation.
//
// The entry station fronts the door: it reads proximity tokens, runs
// phase 1 of the two-factor handshake against the verifier and tells
// the person at the door what to do next on a two-row display. With
// -sim (the default) the hardware is simulated and driven from stdin.
//
// Usage:
//
//	latch-entry [flags]
//
// Flags:
//
//	-config string     Configuration file path
//	-broker string     MQTT broker URL (discovered via mDNS if empty)
//	-user string       Installation owner
//	-site string       Site name
//	-device string     Device ID (default "front-door")
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-event-log string  Event log file path (disabled if empty)
//	-no-advertise      Disable mDNS presence advertising
//	-sim               Drive simulated hardware from stdin (default true)
//	-version           Print version and exit
//
// Examples:
//
//	# Start with an explicit broker
//	latch-entry -user alice -site garage -broker tcp://localhost:1883
//
//	# Start from a config file, discover the broker via mDNS
//	latch-entry -config /etc/latch/entry.yaml
//
//	# Tap a tag once running (stdin)
//	04a1b2c3
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/latch-protocol/latch-go/internal/bootstrap"
	"github.com/latch-protocol/latch-go/internal/config"
	"github.com/latch-protocol/latch-go/pkg/hw/sim"
	"github.com/latch-protocol/latch-go/pkg/station"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/version"
)

var (
	opts        config.Options
	simMode     bool
	showVersion bool
)

func init() {
	flag.StringVar(&opts.ConfigPath, "config", "", "Configuration file path")
	flag.StringVar(&opts.BrokerURL, "broker", "", "MQTT broker URL (discovered via mDNS if empty)")
	flag.StringVar(&opts.User, "user", "", "Installation owner")
	flag.StringVar(&opts.Site, "site", "", "Site name")
	flag.StringVar(&opts.Device, "device", "", `Device ID (default "front-door")`)
	flag.StringVar(&opts.LogLevel, "log-level", "", `Log level: debug, info, warn, error (default "info")`)
	flag.StringVar(&opts.EventLogPath, "event-log", "", "Event log file path (disabled if empty)")
	flag.BoolVar(&opts.NoAdvertise, "no-advertise", false, "Disable mDNS presence advertising")
	flag.BoolVar(&simMode, "sim", true, "Drive simulated hardware from stdin")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println(version.Full())
		return
	}

	opts.DefaultDevice = "front-door"
	settings, err := config.Resolve(opts)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	setupLogging(settings.LogLevel)

	log.Println("LATCH Entry Station")
	log.Println("===================")
	log.Printf("Scope: %s/%s", settings.Scope.User, settings.Scope.Site)
	log.Printf("Device: %s", settings.Scope.DeviceID)
	log.Printf("Code length: %d", settings.Protocol.CodeLength)

	clock := tick.NewSystemClock()
	logger := bootstrap.NewLogger(settings.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node, err := bootstrap.Connect(ctx, bootstrap.Options{
		Settings: settings,
		Role:     station.RoleEntry,
		Clock:    clock,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	log.Printf("Session: %s", node.Conn.SessionID())

	reader := sim.NewReader()
	display := sim.NewDisplay(2)
	motion := sim.NewMotion()
	buzzer := sim.NewLine()

	entry, err := station.NewEntry(node.Conn, station.EntryHardware{
		Reader:  reader,
		Display: display,
		Motion:  motion,
		Buzzer:  buzzer,
	}, station.EntryConfig{
		Protocol:  settings.Protocol,
		SessionID: node.Conn.SessionID(),
		Logger:    logger,
		EventLog:  node.EventLog,
	})
	if err != nil {
		node.Close()
		log.Fatalf("Failed to create station: %v", err)
	}

	runner := station.NewRunner(entry, clock, node.Conn.Inbox())
	go func() {
		if err := runner.Run(ctx); err != nil {
			log.Printf("Station loop error: %v", err)
		}
	}()

	if simMode {
		go runInput(ctx, reader, motion)
		go renderPanel(ctx, display, buzzer)
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Printf("Received signal: %v", sig)
	log.Println("Shutting down...")

	cancel()
	node.Close()

	log.Println("Goodbye!")
}

func setupLogging(level slog.Level) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch {
	case level <= slog.LevelDebug:
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case level >= slog.LevelWarn:
		log.SetFlags(log.Ltime)
	}
}

// runInput feeds the simulated reader and motion sensor from stdin.
func runInput(ctx context.Context, reader *sim.Reader, motion *sim.Motion) {
	log.Println("Simulation mode enabled")
	log.Println(`[SIM] Type a hex UID to tap a tag (e.g. "04a1b2c3"), or "motion on|off"`)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "motion on":
			motion.SetPresent(true)
			log.Println("[SIM] Motion detected")
		case "motion off":
			motion.SetPresent(false)
			log.Println("[SIM] Motion cleared")
		default:
			uid, err := hex.DecodeString(line)
			if err != nil || len(uid) == 0 {
				log.Printf("[SIM] Not a hex UID: %q", line)
				continue
			}
			reader.Present(uid)
			log.Printf("[SIM] Tag presented: %s", line)
		}
	}
}

// renderPanel mirrors the simulated front panel to the log whenever it
// changes. Only the mutex-guarded sim types are read here; station
// state stays confined to the runner goroutine.
func renderPanel(ctx context.Context, display *sim.Display, buzzer *sim.Line) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			backlight := "off"
			if display.Backlight() {
				backlight = "on"
			}
			state := fmt.Sprintf("[LCD] %-16q %-16q backlight=%s", display.Row(0), display.Row(1), backlight)
			if buzzer.On() {
				state += " *beep*"
			}
			if state == last {
				continue
			}
			last = state
			log.Print(state)
		}
	}
}
