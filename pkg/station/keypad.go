package station

import (
	"fmt"
	"log/slog"

	"github.com/latch-protocol/latch-go/pkg/bus"
	"github.com/latch-protocol/latch-go/pkg/buslog"
	"github.com/latch-protocol/latch-go/pkg/hw"
	"github.com/latch-protocol/latch-go/pkg/pattern"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

// KeypadHardware bundles the PIN entry peripherals.
type KeypadHardware struct {
	Keypad hw.Keypad
	Buzzer hw.BinaryOutput
}

func (h KeypadHardware) validate() error {
	if h.Keypad == nil {
		return fmt.Errorf("%w: keypad", ErrMissingHW)
	}
	if h.Buzzer == nil {
		return fmt.Errorf("%w: buzzer", ErrMissingHW)
	}
	return nil
}

// KeypadConfig configures the PIN entry station.
type KeypadConfig struct {
	// Protocol is the installation's handshake timing.
	Protocol ProtocolConfig

	// SessionID tags log events.
	SessionID string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLog receives structured station events (optional).
	EventLog buslog.Logger
}

// Keypad is the PIN entry station. It captures digits while enabled
// and submits complete codes for phase 2 of the handshake. It makes
// no access decisions of its own: enablement comes entirely from the
// entry station's credential grant.
type Keypad struct {
	cfg    KeypadConfig
	conn   bus.Conn
	hw     KeypadHardware
	device wire.DeviceInfo
	rec    recorder
	logger *slog.Logger

	enabled bool
	buffer  []byte

	// window disarms the keypad on its own if the entry station's
	// disable signal never arrives.
	window tick.Session

	buzzer *pattern.Sequencer
}

// NewKeypad creates the PIN entry station and subscribes it to the
// enable suffix.
func NewKeypad(conn bus.Conn, hardware KeypadHardware, cfg KeypadConfig) (*Keypad, error) {
	if err := cfg.Protocol.Validate(); err != nil {
		return nil, err
	}
	if err := hardware.validate(); err != nil {
		return nil, err
	}

	deviceID := conn.Scope().DeviceID
	k := &Keypad{
		cfg:    cfg,
		conn:   conn,
		hw:     hardware,
		device: wire.DeviceInfo{ID: deviceID, Platform: wire.Platform},
		rec:    newRecorder(cfg.EventLog, cfg.SessionID, deviceID),
		logger: cfg.Logger,
		buffer: make([]byte, 0, cfg.Protocol.CodeLength),
		buzzer: pattern.NewSequencer(hardware.Buzzer.Set),
	}

	suffixes := wire.StationSuffixes(wire.KindKeypadEnable)
	if err := conn.Subscribe(suffixes...); err != nil {
		return nil, fmt.Errorf("subscribe failed: %w", err)
	}
	return k, nil
}

// Enabled reports whether the station currently accepts keys.
func (k *Keypad) Enabled() bool {
	return k.enabled
}

// BufferLen returns the number of buffered digits.
func (k *Keypad) BufferLen() int {
	return len(k.buffer)
}

// Update runs one loop pass.
func (k *Keypad) Update(now tick.Millis) {
	for _, d := range k.conn.Inbox().Drain() {
		k.handleDelivery(now, d)
	}
	k.pollKeys(now)
	k.advance(now)
	k.buzzer.Tick(now)
}

func (k *Keypad) handleDelivery(now tick.Millis, d bus.Delivery) {
	msg, err := wire.Decode(d.Suffix, d.Payload)
	if err != nil {
		k.debugLog("dropping undecodable message", "suffix", d.Suffix, "err", err)
		k.rec.failure(now, "decode", err)
		return
	}
	if msg.Kind != wire.KindKeypadEnable {
		return
	}

	if msg.KeypadEnable.Enabled {
		k.rec.received(now, msg, d.Suffix, "enable")
		// A fresh grant always opens a fresh window, even when one is
		// already open.
		k.setEnabled(now, true, "enable signal")
		return
	}
	k.rec.received(now, msg, d.Suffix, "disable")
	k.setEnabled(now, false, "disable signal")
}

func (k *Keypad) pollKeys(now tick.Millis) {
	key, ok := k.hw.Keypad.Poll()
	if !ok {
		return
	}
	if !k.enabled {
		k.debugLog("key ignored while disabled", "key", string(rune(key)))
		return
	}

	switch {
	case key.Digit():
		if len(k.buffer) >= k.cfg.Protocol.CodeLength {
			// Buffer full: excess keys are no-ops.
			return
		}
		k.buffer = append(k.buffer, byte(key))
		k.tap(now)
	case key == hw.KeyClear:
		k.buffer = k.buffer[:0]
		k.tap(now)
	case key == hw.KeySubmit:
		k.submit(now)
	}
}

// tap plays the local keystroke blip and publishes the current buffer
// length so peers can mirror entry progress.
func (k *Keypad) tap(now tick.Millis) {
	_ = k.buzzer.Start(now, PatternTap)
	k.publishProgress(now)
}

func (k *Keypad) publishProgress(now tick.Millis) {
	payload, err := wire.Encode(k.device, now, wire.TapProgress{PinLength: len(k.buffer)})
	if err != nil {
		k.rec.failure(now, "encode", err)
		return
	}
	if err := k.conn.Publish(wire.SuffixTap, payload); err != nil {
		k.debugLog("tap progress publish failed", "err", err)
		k.rec.failure(now, "publish", err)
		return
	}
	k.rec.sent(now, wire.KindTapProgress, fmt.Sprintf("pinlength %d", len(k.buffer)))
}

func (k *Keypad) submit(now tick.Millis) {
	if len(k.buffer) == k.cfg.Protocol.CodeLength {
		payload, err := wire.Encode(k.device, now, wire.CodeSubmit{
			Code:  string(k.buffer),
			Event: wire.EventCodeTry,
		})
		if err != nil {
			k.rec.failure(now, "encode", err)
		} else if err := k.conn.Publish(wire.SuffixCodeSubmit, payload); err != nil {
			k.debugLog("code submit publish failed", "err", err)
			k.rec.failure(now, "publish", err)
		} else {
			k.rec.sent(now, wire.KindCodeSubmit, "code submitted")
		}
	} else {
		k.debugLog("submit ignored, code too short", "have", len(k.buffer))
	}

	// Regardless of outcome the buffer is cleared and the station
	// disarms itself; only the next credential grant re-enables it.
	k.buffer = k.buffer[:0]
	k.publishProgress(now)
	k.setEnabled(now, false, "submitted")
}

func (k *Keypad) advance(now tick.Millis) {
	if k.window.Expired(now) {
		k.window.Disarm()
		k.setEnabled(now, false, "window expired")
	}
}

func (k *Keypad) setEnabled(now tick.Millis, enabled bool, reason string) {
	k.buffer = k.buffer[:0]
	if enabled {
		k.window.Arm(now, k.cfg.Protocol.CodeWindow)
	} else {
		k.window.Disarm()
	}
	if k.enabled == enabled {
		return
	}
	k.enabled = enabled

	oldState, newState := "DISABLED", "ENABLED"
	if !enabled {
		oldState, newState = "ENABLED", "DISABLED"
	}
	k.debugLog("keypad "+newState, "reason", reason)
	k.rec.state(now, "keypad", oldState, newState, reason)
}

// debugLog logs a debug message if logging is enabled.
func (k *Keypad) debugLog(msg string, args ...any) {
	if k.logger != nil {
		k.logger.Debug(msg, args...)
	}
}
