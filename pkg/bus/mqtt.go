package bus

import (
	"fmt"
	"slices"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/latch-protocol/latch-go/pkg/buslog"
	"github.com/latch-protocol/latch-go/pkg/tick"
)

const (
	// publishWait bounds the wait for a QoS 0 publish to reach the
	// network.
	publishWait = 5 * time.Second

	// disconnectQuiesce is the grace period for in-flight traffic on
	// Close.
	disconnectQuiesce = 250 * time.Millisecond
)

// MQTTConn is a broker-backed bus connection.
type MQTTConn struct {
	cfg    Config
	client mqtt.Client
	inbox  *Inbox

	mu      sync.Mutex
	filters []string
	closed  bool
}

// Dial connects to the broker described by cfg. When the broker is
// unreachable the connection keeps retrying in the background at the
// configured reconnect delay; Dial still returns so the station can
// run through outages.
func Dial(cfg Config) (*MQTTConn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = DefaultKeepAlive
	}
	if cfg.InboxCapacity == 0 {
		cfg.InboxCapacity = DefaultInboxCapacity
	}
	if cfg.Logger == nil {
		cfg.Logger = buslog.NoopLogger{}
	}
	if cfg.Clock == nil {
		cfg.Clock = tick.NewSystemClock()
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()[:8]
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("latch-go_%s_%s", cfg.Scope.DeviceID, uuid.NewString()[:8])
	}

	c := &MQTTConn{
		cfg:   cfg,
		inbox: NewInbox(cfg.InboxCapacity),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(clientID).
		SetCleanSession(true).
		SetKeepAlive(cfg.KeepAlive).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(cfg.ReconnectDelay).
		SetMaxReconnectInterval(cfg.ReconnectDelay).
		SetOnConnectHandler(c.handleConnect).
		SetConnectionLostHandler(c.handleConnectionLost)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.WillSuffix != "" {
		opts.SetBinaryWill(cfg.Scope.DeviceTopic(cfg.WillSuffix), cfg.WillPayload, 0, true)
	}

	c.client = mqtt.NewClient(opts)

	token := c.client.Connect()
	if token.WaitTimeout(cfg.ConnectTimeout) {
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("broker connect failed: %w", err)
		}
	}
	return c, nil
}

// Publish sends a payload on this station's own topic for suffix.
func (c *MQTTConn) Publish(suffix string, payload []byte) error {
	return c.publish(suffix, payload, false)
}

// PublishRetained sends a payload the broker keeps as the last known
// value for this station's topic.
func (c *MQTTConn) PublishRetained(suffix string, payload []byte) error {
	return c.publish(suffix, payload, true)
}

func (c *MQTTConn) publish(suffix string, payload []byte, retained bool) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if !c.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	topic := c.cfg.Scope.DeviceTopic(suffix)
	token := c.client.Publish(topic, 0, retained, payload)
	if token.WaitTimeout(publishWait) {
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish on %s failed: %w", topic, err)
		}
	}
	c.logFrame(buslog.DirectionOut, topic, len(payload), retained)
	return nil
}

// Subscribe registers site-wide interest in the given suffixes. When
// the broker session is down the filters are recorded and installed
// once the session comes up.
func (c *MQTTConn) Subscribe(suffixes ...string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	var added []string
	for _, suffix := range suffixes {
		filter := c.cfg.Scope.SiteFilter(suffix)
		if !slices.Contains(c.filters, filter) {
			c.filters = append(c.filters, filter)
			added = append(added, filter)
		}
	}
	c.mu.Unlock()

	if !c.client.IsConnectionOpen() {
		return nil
	}
	for _, filter := range added {
		token := c.client.Subscribe(filter, 0, c.handleMessage)
		if token.WaitTimeout(c.cfg.ConnectTimeout) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("subscribe to %s failed: %w", filter, err)
			}
		}
	}
	return nil
}

// Inbox returns the delivery queue fed by subscriptions.
func (c *MQTTConn) Inbox() *Inbox {
	return c.inbox
}

// Scope returns the topic namespace of this connection.
func (c *MQTTConn) Scope() Scope {
	return c.cfg.Scope
}

// SessionID returns the identifier tagging this connection's log
// events.
func (c *MQTTConn) SessionID() string {
	return c.cfg.SessionID
}

// Connected reports whether a broker session is currently up.
func (c *MQTTConn) Connected() bool {
	return c.client.IsConnectionOpen()
}

// Close tears down the session. It is safe to call more than once.
func (c *MQTTConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.client.Disconnect(uint(disconnectQuiesce / time.Millisecond))
	c.logState("CONNECTED", "CLOSED", "station shutdown")
	return nil
}

// handleConnect runs on every established broker session, including
// reconnects after an outage.
func (c *MQTTConn) handleConnect(client mqtt.Client) {
	c.logState("DISCONNECTED", "CONNECTED", "broker session established")

	c.mu.Lock()
	filters := slices.Clone(c.filters)
	c.mu.Unlock()

	// Clean sessions lose their subscriptions between connects.
	for _, filter := range filters {
		client.Subscribe(filter, 0, c.handleMessage)
	}

	if c.cfg.OnConnect != nil {
		c.cfg.OnConnect(c)
	}
}

func (c *MQTTConn) handleConnectionLost(_ mqtt.Client, err error) {
	c.logState("CONNECTED", "DISCONNECTED", err.Error())
	if c.cfg.OnConnectionLost != nil {
		c.cfg.OnConnectionLost(c, err)
	}
}

func (c *MQTTConn) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	deviceID, suffix, ok := c.cfg.Scope.Split(msg.Topic())
	if !ok {
		return
	}

	payload := msg.Payload()
	c.logFrame(buslog.DirectionIn, msg.Topic(), len(payload), msg.Retained())

	c.inbox.Put(Delivery{
		Topic:    msg.Topic(),
		DeviceID: deviceID,
		Suffix:   suffix,
		Payload:  slices.Clone(payload),
		Retained: msg.Retained(),
	})
}

func (c *MQTTConn) logFrame(dir buslog.Direction, topic string, size int, retained bool) {
	c.cfg.Logger.Log(buslog.Event{
		Timestamp: time.Now(),
		SessionID: c.cfg.SessionID,
		Station:   c.cfg.Scope.DeviceID,
		Direction: dir,
		Layer:     buslog.LayerBus,
		Tick:      uint32(c.cfg.Clock.Now()),
		Frame:     &buslog.FrameEvent{Topic: topic, Size: size, Retained: retained},
	})
}

func (c *MQTTConn) logState(oldState, newState, reason string) {
	c.cfg.Logger.Log(buslog.Event{
		Timestamp: time.Now(),
		SessionID: c.cfg.SessionID,
		Station:   c.cfg.Scope.DeviceID,
		Direction: buslog.DirectionLocal,
		Layer:     buslog.LayerBus,
		Tick:      uint32(c.cfg.Clock.Now()),
		StateChange: &buslog.StateChangeEvent{
			Entity:   "connection",
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}
