package memory

import (
	"slices"
	"sync"

	"github.com/latch-protocol/latch-go/pkg/bus"
)

// Conn is an in-process bus connection.
type Conn struct {
	broker *Broker
	scope  bus.Scope
	inbox  *bus.Inbox

	mu      sync.Mutex
	filters []string
	closed  bool
}

// Compile-time interface satisfaction check.
var _ bus.Conn = (*Conn)(nil)

// Publish sends a payload on this connection's own topic for suffix.
func (c *Conn) Publish(suffix string, payload []byte) error {
	return c.publish(suffix, payload, false)
}

// PublishRetained sends a payload the broker keeps as the last known
// value for this connection's topic.
func (c *Conn) PublishRetained(suffix string, payload []byte) error {
	return c.publish(suffix, payload, true)
}

func (c *Conn) publish(suffix string, payload []byte, retained bool) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return bus.ErrClosed
	}
	c.broker.route(c.scope.DeviceTopic(suffix), payload, retained)
	return nil
}

// Subscribe registers site-wide interest in the given suffixes and
// replays any retained values matching them.
func (c *Conn) Subscribe(suffixes ...string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return bus.ErrClosed
	}
	var added []string
	for _, suffix := range suffixes {
		filter := c.scope.SiteFilter(suffix)
		if !slices.Contains(c.filters, filter) {
			c.filters = append(c.filters, filter)
			added = append(added, filter)
		}
	}
	c.mu.Unlock()

	for _, filter := range added {
		for topic, payload := range c.broker.retainedMatching(filter) {
			c.deliver(topic, payload, true)
		}
	}
	return nil
}

// Inbox returns the delivery queue fed by subscriptions.
func (c *Conn) Inbox() *bus.Inbox {
	return c.inbox
}

// Scope returns the topic namespace of this connection.
func (c *Conn) Scope() bus.Scope {
	return c.scope
}

// Connected reports whether the connection is attached to the broker.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Close detaches the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.broker.remove(c)
	return nil
}

func (c *Conn) deliver(topic string, payload []byte, retained bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	matched := false
	for _, filter := range c.filters {
		if matchFilter(filter, topic) {
			matched = true
			break
		}
	}
	c.mu.Unlock()
	if !matched {
		return
	}

	deviceID, suffix, ok := c.scope.Split(topic)
	if !ok {
		return
	}
	c.inbox.Put(bus.Delivery{
		Topic:    topic,
		DeviceID: deviceID,
		Suffix:   suffix,
		Payload:  slices.Clone(payload),
		Retained: retained,
	})
}
