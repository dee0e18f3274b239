package bus

import "errors"

// Bus errors.
var (
	// ErrClosed is returned by operations on a closed connection.
	ErrClosed = errors.New("connection closed")

	// ErrNotConnected is returned when a publish is attempted while
	// the broker session is down.
	ErrNotConnected = errors.New("not connected")
)

// Conn is a station's attachment to the message bus.
// Implemented by MQTTConn and memory.Conn.
type Conn interface {
	// Publish sends a payload on this station's own topic for suffix.
	Publish(suffix string, payload []byte) error

	// PublishRetained sends a payload the broker keeps as the last
	// known value for this station's topic.
	PublishRetained(suffix string, payload []byte) error

	// Subscribe registers site-wide interest in the given suffixes.
	Subscribe(suffixes ...string) error

	// Inbox returns the delivery queue fed by subscriptions.
	Inbox() *Inbox

	// Scope returns the topic namespace of this connection.
	Scope() Scope

	// Connected reports whether a broker session is currently up.
	Connected() bool

	// Close tears down the session.
	Close() error
}

// Compile-time interface satisfaction check.
var _ Conn = (*MQTTConn)(nil)
