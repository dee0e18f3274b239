package station

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/latch-protocol/latch-go/pkg/bus"
	"github.com/latch-protocol/latch-go/pkg/buslog"
	"github.com/latch-protocol/latch-go/pkg/hw"
	"github.com/latch-protocol/latch-go/pkg/pattern"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

// Display text shown by the entry station.
const (
	entryTextChecking  = "Checking tag..."
	entryTextEnterCode = "Enter code:"
	entryTextGranted   = "Access granted"
	entryTextDenied    = "Access denied"
)

// EntryHardware bundles the front-end peripherals.
type EntryHardware struct {
	Reader  hw.CredentialReader
	Display hw.Display
	Motion  hw.MotionSensor
	Buzzer  hw.BinaryOutput
}

func (h EntryHardware) validate() error {
	if h.Reader == nil {
		return fmt.Errorf("%w: credential reader", ErrMissingHW)
	}
	if h.Display == nil {
		return fmt.Errorf("%w: display", ErrMissingHW)
	}
	if h.Motion == nil {
		return fmt.Errorf("%w: motion sensor", ErrMissingHW)
	}
	if h.Buzzer == nil {
		return fmt.Errorf("%w: buzzer", ErrMissingHW)
	}
	return nil
}

// EntryConfig configures the front-end station.
type EntryConfig struct {
	// Protocol is the installation's handshake timing.
	Protocol ProtocolConfig

	// SessionID tags log events. Matches the bus session when both
	// come from the same process.
	SessionID string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLog receives structured station events (optional).
	EventLog buslog.Logger
}

// Entry is the front-end station: it detects credentials, runs
// phase 1 of the handshake and opens the code window on a grant.
type Entry struct {
	cfg    EntryConfig
	conn   bus.Conn
	hw     EntryHardware
	device wire.DeviceInfo
	rec    recorder
	logger *slog.Logger

	phase  Phase
	window tick.Session

	backlight   tick.Session
	backlightOn bool

	buzzer *pattern.Sequencer
}

// NewEntry creates the front-end station and subscribes it to the
// decision and progress suffixes.
func NewEntry(conn bus.Conn, hardware EntryHardware, cfg EntryConfig) (*Entry, error) {
	if err := cfg.Protocol.Validate(); err != nil {
		return nil, err
	}
	if err := hardware.validate(); err != nil {
		return nil, err
	}

	deviceID := conn.Scope().DeviceID
	e := &Entry{
		cfg:    cfg,
		conn:   conn,
		hw:     hardware,
		device: wire.DeviceInfo{ID: deviceID, Platform: wire.Platform},
		rec:    newRecorder(cfg.EventLog, cfg.SessionID, deviceID),
		logger: cfg.Logger,
		buzzer: pattern.NewSequencer(hardware.Buzzer.Set),
	}
	e.hw.Display.Clear()

	suffixes := wire.StationSuffixes(wire.KindAccessResponse, wire.KindCodeResponse, wire.KindTapProgress)
	if err := conn.Subscribe(suffixes...); err != nil {
		return nil, fmt.Errorf("subscribe failed: %w", err)
	}
	return e, nil
}

// Phase returns the station's current handshake phase.
func (e *Entry) Phase() Phase {
	return e.phase
}

// Update runs one loop pass.
func (e *Entry) Update(now tick.Millis) {
	for _, d := range e.conn.Inbox().Drain() {
		e.handleDelivery(now, d)
	}
	e.pollReader(now)
	e.advance(now)
	e.buzzer.Tick(now)
}

func (e *Entry) pollReader(now tick.Millis) {
	cred, ok := e.hw.Reader.Poll()
	if !ok {
		return
	}
	// Tokens presented mid-handshake are dropped.
	if e.phase != PhaseIdle {
		e.debugLog("credential ignored outside idle", "phase", e.phase.String())
		return
	}
	e.sendCredentialRequest(now, cred)
}

func (e *Entry) sendCredentialRequest(now tick.Millis, cred hw.Credential) {
	payload, err := wire.Encode(e.device, now, wire.AccessRequest{
		UID:   cred.Hex(),
		Event: wire.EventCredentialTry,
	})
	if err != nil {
		e.rec.failure(now, "encode", err)
		return
	}
	if err := e.conn.Publish(wire.SuffixAccessRequest, payload); err != nil {
		// No request is outstanding, so the station stays idle and the
		// user can retry once the bus is back.
		e.debugLog("credential request publish failed", "err", err)
		e.rec.failure(now, "publish", err)
		return
	}

	e.rec.sent(now, wire.KindAccessRequest, "uid "+cred.Hex())
	e.setPhase(now, PhaseAwaitCredential, "credential detected")
	e.window.Arm(now, e.cfg.Protocol.MaxResponseAge)
	e.hw.Display.WriteLine(0, entryTextChecking)
	e.hw.Display.WriteLine(1, "")
}

func (e *Entry) handleDelivery(now tick.Millis, d bus.Delivery) {
	msg, err := wire.Decode(d.Suffix, d.Payload)
	if err != nil {
		e.debugLog("dropping undecodable message", "suffix", d.Suffix, "err", err)
		e.rec.failure(now, "decode", err)
		return
	}

	switch msg.Kind {
	case wire.KindAccessResponse:
		e.handleAccessResponse(now, msg, d.Suffix)
	case wire.KindCodeResponse:
		e.handleCodeResponse(now, msg, d.Suffix)
	case wire.KindTapProgress:
		e.handleTapProgress(now, msg, d.Suffix)
	}
}

func (e *Entry) handleAccessResponse(now tick.Millis, msg *wire.Message, suffix string) {
	if e.phase != PhaseAwaitCredential {
		e.rec.received(now, msg, suffix, "out of phase")
		return
	}

	age := tick.Since(now, msg.AccessResponse.EchoTS)
	if age < 0 || age > e.cfg.Protocol.maxResponseAgeMillis() {
		e.debugLog("stale credential decision discarded", "age_ms", age)
		e.rec.received(now, msg, suffix, "stale")
		return
	}

	if !msg.AccessResponse.Response.HasAccess {
		e.rec.received(now, msg, suffix, "denied")
		e.showDenied(now, "credential denied")
		return
	}

	e.rec.received(now, msg, suffix, "granted")
	e.setKeypadEnabled(now, true)
	e.setPhase(now, PhaseCodeWindow, "credential granted")
	e.window.Arm(now, e.cfg.Protocol.CodeWindow)
	e.hw.Display.WriteLine(0, entryTextEnterCode)
	e.hw.Display.WriteLine(1, "")
}

func (e *Entry) handleCodeResponse(now tick.Millis, msg *wire.Message, suffix string) {
	if e.phase != PhaseCodeWindow {
		e.rec.received(now, msg, suffix, "out of phase")
		return
	}

	e.setKeypadEnabled(now, false)
	if msg.CodeResponse.Response.AccessGranted {
		e.rec.received(now, msg, suffix, "granted")
		e.setPhase(now, PhaseGranted, "code granted")
		e.window.Arm(now, e.cfg.Protocol.DisplayHold)
		e.hw.Display.WriteLine(0, entryTextGranted)
		e.hw.Display.WriteLine(1, "")
		e.buzzer.Stop()
		_ = e.buzzer.Start(now, PatternGranted)
		return
	}

	e.rec.received(now, msg, suffix, "denied")
	e.showDenied(now, "code denied")
}

func (e *Entry) handleTapProgress(now tick.Millis, msg *wire.Message, suffix string) {
	if e.phase != PhaseCodeWindow {
		e.rec.received(now, msg, suffix, "out of phase")
		return
	}
	n := msg.TapProgress.PinLength
	if n < 0 {
		return
	}
	if n > e.cfg.Protocol.CodeLength {
		n = e.cfg.Protocol.CodeLength
	}
	e.hw.Display.WriteLine(1, strings.Repeat("*", n))
}

// showDenied puts the denial verdict on the display and plays the
// denial pattern. Used by both handshake phases.
func (e *Entry) showDenied(now tick.Millis, reason string) {
	e.setPhase(now, PhaseDenied, reason)
	e.window.Arm(now, e.cfg.Protocol.DisplayHold)
	e.hw.Display.WriteLine(0, entryTextDenied)
	e.hw.Display.WriteLine(1, "")
	e.buzzer.Stop()
	_ = e.buzzer.Start(now, PatternDenied)
}

func (e *Entry) setKeypadEnabled(now tick.Millis, enabled bool) {
	payload, err := wire.Encode(e.device, now, wire.KeypadEnable{Enabled: enabled})
	if err != nil {
		e.rec.failure(now, "encode", err)
		return
	}
	if err := e.conn.Publish(wire.SuffixKeypadEnable, payload); err != nil {
		e.debugLog("keypad enable publish failed", "enabled", enabled, "err", err)
		e.rec.failure(now, "publish", err)
		return
	}
	detail := "disable"
	if enabled {
		detail = "enable"
	}
	e.rec.sent(now, wire.KindKeypadEnable, detail)
}

func (e *Entry) advance(now tick.Millis) {
	if e.window.Expired(now) {
		e.window.Disarm()
		switch e.phase {
		case PhaseAwaitCredential:
			e.debugLog("credential decision timed out")
			e.toIdle(now, "response timeout")
		case PhaseCodeWindow:
			e.setKeypadEnabled(now, false)
			e.toIdle(now, "code window expired")
		case PhaseGranted, PhaseDenied:
			e.toIdle(now, "display hold expired")
		}
	}

	if e.hw.Motion.Sample() {
		e.backlight.Extend(now, e.cfg.Protocol.BacklightHold)
	}
	if active := e.backlight.Active(now); active != e.backlightOn {
		e.backlightOn = active
		e.hw.Display.SetBacklight(active)
	}
}

func (e *Entry) toIdle(now tick.Millis, reason string) {
	e.setPhase(now, PhaseIdle, reason)
	e.window.Disarm()
	e.hw.Display.Clear()
}

func (e *Entry) setPhase(now tick.Millis, next Phase, reason string) {
	if e.phase == next {
		return
	}
	e.debugLog("phase change", "from", e.phase.String(), "to", next.String(), "reason", reason)
	e.rec.state(now, "phase", e.phase.String(), next.String(), reason)
	e.phase = next
}

// debugLog logs a debug message if logging is enabled.
func (e *Entry) debugLog(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
