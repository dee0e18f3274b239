// Command latch-keypad runs the PIN entry station of a LATCH
// installation.
//
// The keypad station captures the second factor: it sleeps until the
// entry station grants a credential, then buffers digits and submits
// the complete code to the verifier for phase 2 of the handshake.
// With -sim (the default) the keypad is simulated and driven from
// stdin.
//
// Usage:
//
//	latch-keypad [flags]
//
// Flags:
//
//	-config string     Configuration file path
//	-broker string     MQTT broker URL (discovered via mDNS if empty)
//	-user string       Installation owner
//	-site string       Site name
//	-device string     Device ID (default "door-pad")
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-event-log string  Event log file path (disabled if empty)
//	-no-advertise      Disable mDNS presence advertising
//	-sim               Drive simulated hardware from stdin (default true)
//	-version           Print version and exit
//
// Examples:
//
//	# Start with an explicit broker
//	latch-keypad -user alice -site garage -broker tcp://localhost:1883
//
//	# Type a code once the pad is enabled (stdin); # submits, * clears
//	1234#
package main

import (
	"bufio"
	"context"
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
	"github.com/latch-protocol/latch-go/pkg/hw"
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
	flag.StringVar(&opts.Device, "device", "", `Device ID (default "door-pad")`)
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

	opts.DefaultDevice = "door-pad"
	settings, err := config.Resolve(opts)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	setupLogging(settings.LogLevel)

	log.Println("LATCH Keypad Station")
	log.Println("====================")
	log.Printf("Scope: %s/%s", settings.Scope.User, settings.Scope.Site)
	log.Printf("Device: %s", settings.Scope.DeviceID)
	log.Printf("Code length: %d", settings.Protocol.CodeLength)

	clock := tick.NewSystemClock()
	logger := bootstrap.NewLogger(settings.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node, err := bootstrap.Connect(ctx, bootstrap.Options{
		Settings: settings,
		Role:     station.RoleKeypad,
		Clock:    clock,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	log.Printf("Session: %s", node.Conn.SessionID())

	keypad := sim.NewKeypad()
	buzzer := sim.NewLine()

	pad, err := station.NewKeypad(node.Conn, station.KeypadHardware{
		Keypad: keypad,
		Buzzer: buzzer,
	}, station.KeypadConfig{
		Protocol:  settings.Protocol,
		SessionID: node.Conn.SessionID(),
		Logger:    logger,
		EventLog:  node.EventLog,
	})
	if err != nil {
		node.Close()
		log.Fatalf("Failed to create station: %v", err)
	}

	runner := station.NewRunner(pad, clock, node.Conn.Inbox())
	go func() {
		if err := runner.Run(ctx); err != nil {
			log.Printf("Station loop error: %v", err)
		}
	}()

	if simMode {
		go runInput(ctx, keypad)
		go renderBuzzer(ctx, buzzer)
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

// runInput feeds the simulated keypad from stdin. Each character of a
// line is one key press, so "1234#" types a code and submits it.
func runInput(ctx context.Context, keypad *sim.Keypad) {
	log.Println("Simulation mode enabled")
	log.Println(`[SIM] Type keys 0-9, # to submit, * to clear (e.g. "1234#")`)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !validKeys(line) {
			log.Printf("[SIM] Keys must be 0-9, * or #: %q", line)
			continue
		}
		keypad.Type(line)
		log.Printf("[SIM] Pressed: %s", line)
	}
}

func validKeys(line string) bool {
	for _, r := range line {
		k := hw.Key(r)
		if !k.Digit() && k != hw.KeyClear && k != hw.KeySubmit {
			return false
		}
	}
	return true
}

// renderBuzzer mirrors the feedback buzzer to the log. The buzzer is
// the pad's only output, so its chirps are the simulation's feedback
// for accepted keys and rejected codes.
func renderBuzzer(ctx context.Context, buzzer *sim.Line) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	var last bool
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			on := buzzer.On()
			if on == last {
				continue
			}
			last = on
			if on {
				log.Println("[BUZ] on")
			} else {
				log.Println("[BUZ] off")
			}
		}
	}
}
