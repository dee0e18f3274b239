package buslog

import (
	"time"
)

// Event is one captured bus or station occurrence.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the bus session (UUID), assigned
	// at connect time so reconnects are distinguishable in one file.
	SessionID string `cbor:"2,keyasint,omitempty"`

	// Station is the local station's device identifier.
	Station string `cbor:"3,keyasint,omitempty"`

	// Direction indicates message flow for frame/message events.
	Direction Direction `cbor:"4,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"5,keyasint"`

	// Tick is the station's monotonic millisecond tick at capture, when
	// known. Lets log analysis correlate with protocol timing windows.
	Tick uint32 `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (exactly one is set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates traffic received from the bus.
	DirectionIn Direction = 0
	// DirectionOut indicates traffic published to the bus.
	DirectionOut Direction = 1
	// DirectionLocal marks events with no bus direction (state changes).
	DirectionLocal Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionLocal:
		return "LOCAL"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerBus is the transport layer (raw topic frames).
	LayerBus Layer = 0
	// LayerMessage is the decoded contract layer.
	LayerMessage Layer = 1
	// LayerStation is the station state-machine layer.
	LayerStation Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerBus:
		return "BUS"
	case LayerMessage:
		return "MESSAGE"
	case LayerStation:
		return "STATION"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures one raw frame at the bus layer.
type FrameEvent struct {
	// Topic is the full topic the frame traveled on.
	Topic string `cbor:"1,keyasint"`

	// Size is the payload size in bytes.
	Size int `cbor:"2,keyasint"`

	// Retained marks retained publishes (status announcements).
	Retained bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures one decoded contract message.
type MessageEvent struct {
	// Kind is the decoded message kind name (wire.Kind.String()).
	Kind string `cbor:"1,keyasint"`

	// Suffix is the topic suffix the message arrived on or left by.
	Suffix string `cbor:"2,keyasint,omitempty"`

	// Peer is the device id from the message envelope.
	Peer string `cbor:"3,keyasint,omitempty"`

	// SentTS is the envelope sent_ts_ms.
	SentTS uint32 `cbor:"4,keyasint,omitempty"`

	// Detail is an optional short free-form note ("stale", "out of
	// phase", "granted", ...) explaining how the station treated it.
	Detail string `cbor:"5,keyasint,omitempty"`
}

// StateChangeEvent captures a station state transition.
type StateChangeEvent struct {
	// Entity names what changed ("phase", "door", "keypad", "override").
	Entity string `cbor:"1,keyasint"`

	// OldState is the previous state name (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state name.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change, when available ("timeout", "denied", ...).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Context describes what was being done ("decode", "publish").
	Context string `cbor:"1,keyasint,omitempty"`

	// Message is the error text.
	Message string `cbor:"2,keyasint"`
}
