// Package bootstrap assembles the plumbing every station binary
// shares: the debug logger, the structured event log, broker discovery
// and the bus session with presence announcements wired in.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/latch-protocol/latch-go/internal/config"
	"github.com/latch-protocol/latch-go/pkg/bus"
	"github.com/latch-protocol/latch-go/pkg/buslog"
	"github.com/latch-protocol/latch-go/pkg/discovery"
	"github.com/latch-protocol/latch-go/pkg/station"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/version"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

const (
	// FallbackBrokerURL is dialed when neither configuration nor mDNS
	// names a broker.
	FallbackBrokerURL = "tcp://127.0.0.1:1883"

	// brokerLookupTimeout bounds the pre-connect mDNS browse.
	brokerLookupTimeout = 5 * time.Second
)

// NewLogger returns the debug logger binaries hand to their station
// state machines.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// ResolveBrokerURL returns the broker to dial: the configured URL when
// set, otherwise the first mDNS-advertised broker, otherwise the
// localhost fallback.
func ResolveBrokerURL(ctx context.Context, configured string, logger *slog.Logger) string {
	logger = ensureLogger(logger)
	if configured != "" {
		return configured
	}

	browser, err := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
	if err != nil {
		logger.Warn("mdns browsing unavailable", "err", err, "fallback", FallbackBrokerURL)
		return FallbackBrokerURL
	}

	lookupCtx, cancel := context.WithTimeout(ctx, brokerLookupTimeout)
	defer cancel()

	broker, err := browser.FindBroker(lookupCtx)
	if err != nil {
		logger.Warn("no broker advertised on the network", "fallback", FallbackBrokerURL)
		return FallbackBrokerURL
	}
	logger.Info("broker discovered", "instance", broker.InstanceName, "url", broker.URL())
	return broker.URL()
}

// Options describe one station process's bus session.
type Options struct {
	// Settings is the resolved station configuration. Required.
	Settings *config.Settings

	// Role is announced in presence records (station.RoleEntry, ...).
	Role string

	// Clock stamps presence announcements and event log ticks.
	// Nil means the system clock.
	Clock tick.Clock

	// Logger receives wiring progress and warnings. May be nil.
	Logger *slog.Logger
}

// Node bundles the live plumbing a station binary runs on.
type Node struct {
	// Conn is the broker session.
	Conn *bus.MQTTConn

	// EventLog is the structured event sink shared by the bus session
	// and the station. NoopLogger when no event file is configured.
	EventLog buslog.Logger

	device     wire.DeviceInfo
	role       string
	eventFile  *buslog.FileLogger
	advertiser *discovery.MDNSAdvertiser
	logger     *slog.Logger
}

// Connect resolves the broker, opens the bus session and starts mDNS
// advertising per the settings. The context bounds broker discovery;
// the session itself lives until Close.
func Connect(ctx context.Context, opts Options) (*Node, error) {
	s := opts.Settings
	clock := opts.Clock
	if clock == nil {
		clock = tick.NewSystemClock()
	}
	logger := ensureLogger(opts.Logger)

	n := &Node{
		EventLog: buslog.NoopLogger{},
		device:   wire.DeviceInfo{ID: s.Scope.DeviceID, Platform: wire.Platform},
		role:     opts.Role,
		logger:   logger,
	}

	if s.EventLogPath != "" {
		file, err := buslog.NewFileLogger(s.EventLogPath)
		if err != nil {
			return nil, fmt.Errorf("opening event log: %w", err)
		}
		n.eventFile = file
		n.EventLog = file
	}

	busCfg := bus.DefaultConfig(ResolveBrokerURL(ctx, s.BrokerURL, logger), s.Scope)
	busCfg.Username = s.BrokerUsername
	busCfg.Password = s.BrokerPassword
	busCfg.Clock = clock
	busCfg.Logger = n.EventLog
	busCfg.WillSuffix = wire.SuffixStatus
	busCfg.WillPayload = station.OfflineWill(n.device, opts.Role)
	busCfg.OnConnect = station.AnnounceOnline(n.device, opts.Role, clock)
	busCfg.OnConnectionLost = func(_ bus.Conn, err error) {
		logger.Warn("broker session lost", "err", err)
	}

	conn, err := bus.Dial(busCfg)
	if err != nil {
		n.closeEventFile()
		return nil, err
	}
	n.Conn = conn

	if s.Advertise {
		n.advertise(ctx, s)
	}
	return n, nil
}

// advertise starts the mDNS presence record. Advertising is best
// effort; stations run fine on networks without multicast.
func (n *Node) advertise(ctx context.Context, s *config.Settings) {
	adv, err := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
	if err != nil {
		n.logger.Warn("mdns advertising unavailable", "err", err)
		return
	}

	info := &discovery.StationInfo{
		User:     s.Scope.User,
		Site:     s.Scope.Site,
		DeviceID: s.Scope.DeviceID,
		Role:     n.role,
		Firmware: version.String(),
	}
	if err := adv.AdvertiseStation(ctx, info); err != nil {
		n.logger.Warn("presence advertising failed", "err", err)
		return
	}
	n.advertiser = adv
	n.logger.Info("advertising presence", "instance", info.InstanceName())
}

// Close publishes a retained offline status, stops advertising and
// tears the session down. A graceful disconnect suppresses the MQTT
// last will, so the offline record must be published explicitly.
func (n *Node) Close() {
	if n.advertiser != nil {
		n.advertiser.StopAll()
	}
	if n.Conn != nil {
		_ = n.Conn.PublishRetained(wire.SuffixStatus, station.OfflineWill(n.device, n.role))
		_ = n.Conn.Close()
	}
	n.closeEventFile()
}

func (n *Node) closeEventFile() {
	if n.eventFile != nil {
		if err := n.eventFile.Close(); err != nil {
			n.logger.Warn("closing event log", "err", err)
		}
		n.eventFile = nil
	}
}

func ensureLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
