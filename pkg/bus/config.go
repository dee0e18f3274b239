package bus

import (
	"fmt"
	"time"

	"github.com/latch-protocol/latch-go/pkg/buslog"
	"github.com/latch-protocol/latch-go/pkg/tick"
)

// Defaults for bus sessions.
const (
	// DefaultReconnectDelay is the fixed retry interval after a failed
	// or lost broker connection.
	DefaultReconnectDelay = 2 * time.Second

	// DefaultConnectTimeout bounds the initial connection attempt.
	DefaultConnectTimeout = 30 * time.Second

	// DefaultKeepAlive is the MQTT keep-alive interval.
	DefaultKeepAlive = 30 * time.Second

	// DefaultInboxCapacity bounds the delivery queue.
	DefaultInboxCapacity = 32
)

// Config configures a broker connection.
type Config struct {
	// BrokerURL is the broker address (e.g. "tcp://broker.local:1883").
	BrokerURL string

	// Username and Password authenticate against the broker. Empty
	// username connects anonymously.
	Username string
	Password string

	// Scope names the topic namespace this connection lives in.
	Scope Scope

	// ClientID overrides the generated broker client identifier.
	ClientID string

	// SessionID tags bus log events. Generated when empty.
	SessionID string

	// ReconnectDelay is the fixed retry interval after a lost
	// connection (default: 2s).
	ReconnectDelay time.Duration

	// ConnectTimeout bounds the initial connection attempt
	// (default: 30s).
	ConnectTimeout time.Duration

	// KeepAlive is the MQTT keep-alive interval (default: 30s).
	KeepAlive time.Duration

	// InboxCapacity bounds the delivery queue (default: 32).
	InboxCapacity int

	// WillSuffix, when set, registers a retained last-will message on
	// this station's own topic so peers observe an ungraceful exit.
	WillSuffix string

	// WillPayload is the body of the last-will message.
	WillPayload []byte

	// OnConnect runs on every established broker session, after
	// subscriptions have been restored.
	OnConnect func(Conn)

	// OnConnectionLost runs when an established session drops.
	OnConnectionLost func(Conn, error)

	// Logger receives bus-layer events (default: discard).
	Logger buslog.Logger

	// Clock stamps bus log events with station ticks.
	Clock tick.Clock
}

// DefaultConfig returns a Config with default timing for the given
// broker and scope.
func DefaultConfig(brokerURL string, scope Scope) Config {
	return Config{
		BrokerURL:      brokerURL,
		Scope:          scope,
		ReconnectDelay: DefaultReconnectDelay,
		ConnectTimeout: DefaultConnectTimeout,
		KeepAlive:      DefaultKeepAlive,
		InboxCapacity:  DefaultInboxCapacity,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BrokerURL == "" {
		return fmt.Errorf("broker URL is required")
	}
	if err := c.Scope.Validate(); err != nil {
		return err
	}
	if c.InboxCapacity < 0 {
		return fmt.Errorf("inbox capacity must not be negative")
	}
	if c.ReconnectDelay < 0 {
		return fmt.Errorf("reconnect delay must not be negative")
	}
	return nil
}
