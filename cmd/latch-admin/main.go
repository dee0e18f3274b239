// Command latch-admin is the interactive operator console for a LATCH
// site.
//
// The console joins the site's bus like any station and gives an
// operator live visibility and the manual override: watch the
// handshake traffic, list stations, and hand the lock servo to its
// dial for maintenance.
//
// Usage:
//
//	latch-admin [flags]
//
// Flags:
//
//	-config string     Configuration file path
//	-broker string     MQTT broker URL (discovered via mDNS if empty)
//	-user string       Installation owner
//	-site string       Site name
//	-device string     Device ID (default "admin")
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-event-log string  Event log file path (disabled if empty)
//	-no-advertise      Disable mDNS presence advertising
//	-version           Print version and exit
//
// Examples:
//
//	# Open a console on a site
//	latch-admin -user alice -site garage
//
//	# Record everything the console sees for latch-log
//	latch-admin -user alice -site garage -event-log admin.blog
//
// Interactive Commands:
//
//	override on|off - Hand the lock servo to its dial / give it back
//	watch [on|off]  - Print site traffic as it happens
//	who             - List stations from their presence records
//	stations        - Browse the site via mDNS
//	status          - Show console status
//	quit            - Exit the console
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

	"github.com/latch-protocol/latch-go/cmd/latch-admin/console"
	"github.com/latch-protocol/latch-go/internal/bootstrap"
	"github.com/latch-protocol/latch-go/internal/config"
	"github.com/latch-protocol/latch-go/pkg/station"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/version"
)

var (
	opts        config.Options
	showVersion bool
)

func init() {
	flag.StringVar(&opts.ConfigPath, "config", "", "Configuration file path")
	flag.StringVar(&opts.BrokerURL, "broker", "", "MQTT broker URL (discovered via mDNS if empty)")
	flag.StringVar(&opts.User, "user", "", "Installation owner")
	flag.StringVar(&opts.Site, "site", "", "Site name")
	flag.StringVar(&opts.Device, "device", "", `Device ID (default "admin")`)
	flag.StringVar(&opts.LogLevel, "log-level", "", `Log level: debug, info, warn, error (default "info")`)
	flag.StringVar(&opts.EventLogPath, "event-log", "", "Event log file path (disabled if empty)")
	flag.BoolVar(&opts.NoAdvertise, "no-advertise", false, "Disable mDNS presence advertising")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println(version.Full())
		return
	}

	opts.DefaultDevice = "admin"
	settings, err := config.Resolve(opts)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	setupLogging(settings.LogLevel)

	log.Println("LATCH Admin Console")
	log.Println("===================")
	log.Printf("Scope: %s/%s", settings.Scope.User, settings.Scope.Site)
	log.Printf("Device: %s", settings.Scope.DeviceID)

	clock := tick.NewSystemClock()
	logger := bootstrap.NewLogger(settings.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node, err := bootstrap.Connect(ctx, bootstrap.Options{
		Settings: settings,
		Role:     station.RoleAdmin,
		Clock:    clock,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	log.Printf("Session: %s", node.Conn.SessionID())

	con, err := console.New(node.Conn, clock)
	if err != nil {
		node.Close()
		log.Fatalf("Failed to create console: %v", err)
	}

	// Redirect log output through readline to avoid interfering with input
	log.SetOutput(con.Stdout())
	go con.Run(ctx, cancel)

	// Wait for shutdown signal or the quit command
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

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
