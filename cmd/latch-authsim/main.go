// Command latch-authsim runs a simulated verification backend for a
// LATCH installation.
//
// The backend answers both handshake phases from a YAML policy file:
// phase-1 credential checks against the allowlist and phase-2 code
// checks against bcrypt PIN hashes. It stands in for a real access
// control backend during development and testing.
//
// Usage:
//
//	latch-authsim [flags]
//	latch-authsim hashpin <pin>
//
// The hashpin subcommand prints the bcrypt hash of a PIN in the form
// the policy file expects.
//
// Flags:
//
//	-policy string        Policy file path (required)
//	-grant-window duration  How long a credential grant backs a code
//	                      submission (default 30s)
//	-config string        Configuration file path
//	-broker string        MQTT broker URL (discovered via mDNS if empty)
//	-user string          Installation owner
//	-site string          Site name
//	-device string        Device ID (default "auth")
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-event-log string     Event log file path (disabled if empty)
//	-no-advertise         Disable mDNS presence advertising
//	-version              Print version and exit
//
// Examples:
//
//	# Hash a PIN for the policy file
//	latch-authsim hashpin 1234
//
//	# Serve decisions for a site
//	latch-authsim -user alice -site garage -policy policy.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/latch-protocol/latch-go/internal/bootstrap"
	"github.com/latch-protocol/latch-go/internal/config"
	"github.com/latch-protocol/latch-go/pkg/authsim"
	"github.com/latch-protocol/latch-go/pkg/station"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/version"
)

var (
	opts        config.Options
	policyPath  string
	grantWindow time.Duration
	showVersion bool
)

func init() {
	flag.StringVar(&policyPath, "policy", "", "Policy file path (required)")
	flag.DurationVar(&grantWindow, "grant-window", 0, "How long a credential grant backs a code submission (default 30s)")
	flag.StringVar(&opts.ConfigPath, "config", "", "Configuration file path")
	flag.StringVar(&opts.BrokerURL, "broker", "", "MQTT broker URL (discovered via mDNS if empty)")
	flag.StringVar(&opts.User, "user", "", "Installation owner")
	flag.StringVar(&opts.Site, "site", "", "Site name")
	flag.StringVar(&opts.Device, "device", "", `Device ID (default "auth")`)
	flag.StringVar(&opts.LogLevel, "log-level", "", `Log level: debug, info, warn, error (default "info")`)
	flag.StringVar(&opts.EventLogPath, "event-log", "", "Event log file path (disabled if empty)")
	flag.BoolVar(&opts.NoAdvertise, "no-advertise", false, "Disable mDNS presence advertising")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hashpin" {
		runHashPIN(os.Args[2:])
		return
	}

	flag.Parse()

	if showVersion {
		fmt.Println(version.Full())
		return
	}

	if policyPath == "" {
		log.Fatal("A policy file is required (-policy)")
	}

	opts.DefaultDevice = "auth"
	settings, err := config.Resolve(opts)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	setupLogging(settings.LogLevel)

	policy, err := authsim.LoadPolicy(policyPath)
	if err != nil {
		log.Fatalf("Invalid policy: %v", err)
	}

	log.Println("LATCH Auth Simulator")
	log.Println("====================")
	log.Printf("Scope: %s/%s", settings.Scope.User, settings.Scope.Site)
	log.Printf("Device: %s", settings.Scope.DeviceID)
	log.Printf("Policy: %d user(s)", len(policy.Users))
	if delay := policy.ReplyDelay(); delay > 0 {
		log.Printf("Reply delay: %s", delay)
	}

	clock := tick.NewSystemClock()
	logger := bootstrap.NewLogger(settings.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node, err := bootstrap.Connect(ctx, bootstrap.Options{
		Settings: settings,
		Role:     station.RoleAuth,
		Clock:    clock,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	log.Printf("Session: %s", node.Conn.SessionID())

	engine, err := authsim.NewEngine(node.Conn, authsim.Config{
		Policy:      policy,
		GrantWindow: grantWindow,
		SessionID:   node.Conn.SessionID(),
		Logger:      logger,
		EventLog:    node.EventLog,
	})
	if err != nil {
		node.Close()
		log.Fatalf("Failed to create engine: %v", err)
	}

	runner := station.NewRunner(engine, clock, node.Conn.Inbox())
	go func() {
		if err := runner.Run(ctx); err != nil {
			log.Printf("Engine loop error: %v", err)
		}
	}()
	log.Println("Serving decisions")

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

func runHashPIN(args []string) {
	if len(args) != 1 || args[0] == "" {
		fmt.Fprintln(os.Stderr, "Usage: latch-authsim hashpin <pin>")
		os.Exit(2)
	}
	hash, err := authsim.HashPIN(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash PIN: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
