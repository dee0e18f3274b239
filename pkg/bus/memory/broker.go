package memory

import (
	"slices"
	"strings"
	"sync"

	"github.com/latch-protocol/latch-go/pkg/bus"
)

// Broker routes messages between in-process connections. Deliveries
// are synchronous: by the time Publish returns, every matching inbox
// holds the message.
type Broker struct {
	mu       sync.Mutex
	conns    map[*Conn]struct{}
	retained map[string][]byte
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		conns:    make(map[*Conn]struct{}),
		retained: make(map[string][]byte),
	}
}

// Connect attaches a new connection with the default inbox capacity.
func (b *Broker) Connect(scope bus.Scope) *Conn {
	return b.ConnectWithCapacity(scope, bus.DefaultInboxCapacity)
}

// ConnectWithCapacity attaches a new connection with a bounded inbox.
func (b *Broker) ConnectWithCapacity(scope bus.Scope, capacity int) *Conn {
	c := &Conn{
		broker: b,
		scope:  scope,
		inbox:  bus.NewInbox(capacity),
	}
	b.mu.Lock()
	b.conns[c] = struct{}{}
	b.mu.Unlock()
	return c
}

// Inject publishes a raw frame without a connection, the way a
// foreign client on a shared broker could.
func (b *Broker) Inject(topic string, payload []byte) {
	b.route(topic, payload, false)
}

// Retained returns the stored payload for topic, or nil.
func (b *Broker) Retained(topic string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.retained[topic])
}

func (b *Broker) route(topic string, payload []byte, retained bool) {
	b.mu.Lock()
	if retained {
		if len(payload) == 0 {
			delete(b.retained, topic)
		} else {
			b.retained[topic] = slices.Clone(payload)
		}
	}
	conns := make([]*Conn, 0, len(b.conns))
	for c := range b.conns {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	// Live deliveries never carry the retained flag; only replays on
	// subscribe do.
	for _, c := range conns {
		c.deliver(topic, payload, false)
	}
}

func (b *Broker) retainedMatching(filter string) map[string][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string][]byte)
	for topic, payload := range b.retained {
		if matchFilter(filter, topic) {
			out[topic] = slices.Clone(payload)
		}
	}
	return out
}

func (b *Broker) remove(c *Conn) {
	b.mu.Lock()
	delete(b.conns, c)
	b.mu.Unlock()
}

// matchFilter reports whether an MQTT topic filter matches a topic.
// "+" matches one level, "#" the remainder.
func matchFilter(filter, topic string) bool {
	fparts := strings.Split(filter, "/")
	tparts := strings.Split(topic, "/")
	for i, fp := range fparts {
		if fp == "#" {
			return true
		}
		if i >= len(tparts) {
			return false
		}
		if fp != "+" && fp != tparts[i] {
			return false
		}
	}
	return len(fparts) == len(tparts)
}
