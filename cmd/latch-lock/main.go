// Command latch-lock runs the actuator station of a LATCH
// installation.
//
// The lock station owns the mechanism. It follows both phases of the
// handshake on the bus, drives the servo open only when a code grant
// lands inside its own credential window and relocks on a local timer
// that keeps working when the network does not. An admin override
// hands the servo to the station's dial. With -sim (the default) the
// hardware is simulated and driven from stdin.
//
// Usage:
//
//	latch-lock [flags]
//
// Flags:
//
//	-config string     Configuration file path
//	-broker string     MQTT broker URL (discovered via mDNS if empty)
//	-user string       Installation owner
//	-site string       Site name
//	-device string     Device ID (default "door-lock")
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-event-log string  Event log file path (disabled if empty)
//	-no-advertise      Disable mDNS presence advertising
//	-sim               Drive simulated hardware from stdin (default true)
//	-version           Print version and exit
//
// Examples:
//
//	# Start with an explicit broker
//	latch-lock -user alice -site garage -broker tcp://localhost:1883
//
//	# Custom mechanism geometry via config file
//	latch-lock -config /etc/latch/lock.yaml
//
//	# Turn the override dial once running (stdin)
//	dial 512
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
	"strconv"
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

const (
	servoRange = 180
	dialRange  = 1023
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
	flag.StringVar(&opts.Device, "device", "", `Device ID (default "door-lock")`)
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

	opts.DefaultDevice = "door-lock"
	settings, err := config.Resolve(opts)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	setupLogging(settings.LogLevel)

	log.Println("LATCH Lock Station")
	log.Println("==================")
	log.Printf("Scope: %s/%s", settings.Scope.User, settings.Scope.Site)
	log.Printf("Device: %s", settings.Scope.DeviceID)
	log.Printf("Mechanism: open %d deg, closed %d deg", settings.OpenAngle, settings.ClosedAngle)
	log.Printf("Unlock time: %s", settings.Protocol.UnlockTime)

	clock := tick.NewSystemClock()
	logger := bootstrap.NewLogger(settings.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node, err := bootstrap.Connect(ctx, bootstrap.Options{
		Settings: settings,
		Role:     station.RoleLock,
		Clock:    clock,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	log.Printf("Session: %s", node.Conn.SessionID())

	servo := sim.NewServo(servoRange)
	green := sim.NewLine()
	red := sim.NewLine()
	buzzer := sim.NewLine()
	dial := sim.NewDial(dialRange)

	lock, err := station.NewLock(node.Conn, station.LockHardware{
		Servo:  servo,
		Green:  green,
		Red:    red,
		Buzzer: buzzer,
		Dial:   dial,
	}, station.LockConfig{
		Protocol:    settings.Protocol,
		OpenAngle:   settings.OpenAngle,
		ClosedAngle: settings.ClosedAngle,
		SessionID:   node.Conn.SessionID(),
		Logger:      logger,
		EventLog:    node.EventLog,
	})
	if err != nil {
		node.Close()
		log.Fatalf("Failed to create station: %v", err)
	}

	runner := station.NewRunner(lock, clock, node.Conn.Inbox())
	go func() {
		if err := runner.Run(ctx); err != nil {
			log.Printf("Station loop error: %v", err)
		}
	}()

	if simMode {
		go runInput(ctx, dial)
		go renderMechanism(ctx, servo, green, red)
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

// runInput feeds the simulated override dial from stdin. The dial only
// matters while an admin override is active.
func runInput(ctx context.Context, dial *sim.Dial) {
	log.Println("Simulation mode enabled")
	log.Printf(`[SIM] Type "dial <0-%d>" to turn the override dial`, dial.Max())

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		value, ok := strings.CutPrefix(line, "dial ")
		if !ok {
			log.Printf("[SIM] Unknown input: %q", line)
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			log.Printf("[SIM] Not a dial value: %q", value)
			continue
		}
		dial.SetValue(v)
		log.Printf("[SIM] Dial set to %d", dial.Read())
	}
}

// renderMechanism mirrors the servo and indicator LEDs to the log
// whenever they change.
func renderMechanism(ctx context.Context, servo *sim.Servo, green, red *sim.Line) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state := fmt.Sprintf("[SRV] angle=%d green=%s red=%s",
				servo.Angle(), onOff(green.On()), onOff(red.On()))
			if state == last {
				continue
			}
			last = state
			log.Print(state)
		}
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
