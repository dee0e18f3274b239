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

// LockHardware bundles the actuator peripherals.
type LockHardware struct {
	Servo  hw.AngleOutput
	Green  hw.BinaryOutput
	Red    hw.BinaryOutput
	Buzzer hw.BinaryOutput

	// Dial is the analog source driving the servo in admin override.
	Dial hw.AnalogInput
}

func (h LockHardware) validate() error {
	if h.Servo == nil {
		return fmt.Errorf("%w: servo", ErrMissingHW)
	}
	if h.Green == nil {
		return fmt.Errorf("%w: green indicator", ErrMissingHW)
	}
	if h.Red == nil {
		return fmt.Errorf("%w: red indicator", ErrMissingHW)
	}
	if h.Buzzer == nil {
		return fmt.Errorf("%w: buzzer", ErrMissingHW)
	}
	if h.Dial == nil {
		return fmt.Errorf("%w: override dial", ErrMissingHW)
	}
	return nil
}

// LockConfig configures the actuator station.
type LockConfig struct {
	// Protocol is the installation's handshake timing.
	Protocol ProtocolConfig

	// OpenAngle is the servo angle of the open mechanism.
	OpenAngle int

	// ClosedAngle is the servo angle of the closed mechanism.
	ClosedAngle int

	// SessionID tags log events.
	SessionID string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLog receives structured station events (optional).
	EventLog buslog.Logger
}

// DefaultLockConfig returns a LockConfig with stock timing and a
// 0/90 degree mechanism.
func DefaultLockConfig() LockConfig {
	return LockConfig{
		Protocol:    DefaultProtocolConfig(),
		OpenAngle:   90,
		ClosedAngle: 0,
	}
}

// Lock is the actuator station. It owns the mechanism, makes the
// final unlock decision from its own local belief about the handshake
// and guarantees relock through a timer that needs no messages.
type Lock struct {
	cfg    LockConfig
	conn   bus.Conn
	hw     LockHardware
	device wire.DeviceInfo
	rec    recorder
	logger *slog.Logger

	door     DoorState
	override bool

	// belief is the station's local "credential granted" window. It is
	// armed by a phase-1 grant and consumed by the unlock, bounding
	// how long a code decision can act on an old grant.
	belief tick.Session

	relock tick.Session
	buzzer *pattern.Sequencer
}

// NewLock creates the actuator station, drives the mechanism to the
// locked state and subscribes to the decision, progress and override
// suffixes.
func NewLock(conn bus.Conn, hardware LockHardware, cfg LockConfig) (*Lock, error) {
	if err := cfg.Protocol.Validate(); err != nil {
		return nil, err
	}
	if cfg.OpenAngle == cfg.ClosedAngle {
		return nil, fmt.Errorf("%w: open and closed angles must differ", ErrInvalidConfig)
	}
	if err := hardware.validate(); err != nil {
		return nil, err
	}

	deviceID := conn.Scope().DeviceID
	l := &Lock{
		cfg:    cfg,
		conn:   conn,
		hw:     hardware,
		device: wire.DeviceInfo{ID: deviceID, Platform: wire.Platform},
		rec:    newRecorder(cfg.EventLog, cfg.SessionID, deviceID),
		logger: cfg.Logger,
		buzzer: pattern.NewSequencer(hardware.Buzzer.Set),
	}
	l.closeMechanism()

	suffixes := wire.StationSuffixes(
		wire.KindAccessResponse,
		wire.KindCodeResponse,
		wire.KindTapProgress,
		wire.KindAdminServoControl,
	)
	if err := conn.Subscribe(suffixes...); err != nil {
		return nil, fmt.Errorf("subscribe failed: %w", err)
	}
	return l, nil
}

// Door returns the mechanism state.
func (l *Lock) Door() DoorState {
	return l.door
}

// Override reports whether admin override is active.
func (l *Lock) Override() bool {
	return l.override
}

// Update runs one loop pass.
func (l *Lock) Update(now tick.Millis) {
	for _, d := range l.conn.Inbox().Drain() {
		l.handleDelivery(now, d)
	}
	l.advance(now)
	l.buzzer.Tick(now)
}

func (l *Lock) handleDelivery(now tick.Millis, d bus.Delivery) {
	msg, err := wire.Decode(d.Suffix, d.Payload)
	if err != nil {
		l.debugLog("dropping undecodable message", "suffix", d.Suffix, "err", err)
		l.rec.failure(now, "decode", err)
		return
	}

	// Override mode answers only to the override toggle itself.
	if l.override && msg.Kind != wire.KindAdminServoControl {
		l.rec.received(now, msg, d.Suffix, "ignored in override")
		return
	}

	switch msg.Kind {
	case wire.KindAccessResponse:
		l.handleAccessResponse(now, msg, d.Suffix)
	case wire.KindCodeResponse:
		l.handleCodeResponse(now, msg, d.Suffix)
	case wire.KindTapProgress:
		l.handleTapProgress(now, msg, d.Suffix)
	case wire.KindAdminServoControl:
		l.rec.received(now, msg, d.Suffix, fmt.Sprintf("override %v", msg.AdminServoControl.AdminServoControl))
		l.setOverride(now, msg.AdminServoControl.AdminServoControl)
	}
}

func (l *Lock) handleAccessResponse(now tick.Millis, msg *wire.Message, suffix string) {
	if !msg.AccessResponse.Response.HasAccess {
		l.rec.received(now, msg, suffix, "denied")
		l.belief.Disarm()
		l.forceLocked(now, "credential denied", PatternDenied)
		return
	}
	// The grant is believed for one code window. The decision's age
	// cannot be checked here: the echoed timestamp lives in the entry
	// station's clock domain.
	l.rec.received(now, msg, suffix, "granted")
	l.belief.Arm(now, l.cfg.Protocol.CodeWindow)
}

func (l *Lock) handleCodeResponse(now tick.Millis, msg *wire.Message, suffix string) {
	if !l.belief.Active(now) {
		// A code verdict with no believed credential grant is hostile
		// or badly delayed either way; slam shut.
		l.rec.received(now, msg, suffix, "no credential grant")
		l.forceLocked(now, "code decision without credential grant", PatternDenied)
		return
	}

	if !msg.CodeResponse.Response.AccessGranted {
		l.rec.received(now, msg, suffix, "denied")
		l.belief.Disarm()
		l.forceLocked(now, "code denied", PatternDenied)
		return
	}

	l.rec.received(now, msg, suffix, "granted")
	l.unlock(now)
}

func (l *Lock) handleTapProgress(now tick.Millis, msg *wire.Message, suffix string) {
	if !l.belief.Active(now) {
		// Misrouted or replayed progress gets no feedback.
		l.rec.received(now, msg, suffix, "no credential grant")
		return
	}
	_ = l.buzzer.Start(now, PatternTap)
}

func (l *Lock) unlock(now tick.Millis) {
	l.belief.Disarm()
	l.setDoor(now, DoorUnlocked, "code granted")
	l.hw.Servo.SetAngle(l.clampAngle(l.cfg.OpenAngle))
	l.hw.Green.Set(true)
	l.hw.Red.Set(false)
	l.relock.Arm(now, l.cfg.Protocol.UnlockTime)
	l.buzzer.Stop()
	_ = l.buzzer.Start(now, PatternGranted)
}

// forceLocked closes the mechanism and plays pat. Safe to call in any
// state, including when already locked.
func (l *Lock) forceLocked(now tick.Millis, reason string, pat pattern.Pattern) {
	l.setDoor(now, DoorLocked, reason)
	l.closeMechanism()
	l.buzzer.Stop()
	_ = l.buzzer.Start(now, pat)
}

// closeMechanism drives the hardware to the locked posture without
// touching protocol state.
func (l *Lock) closeMechanism() {
	l.relock.Disarm()
	l.hw.Servo.SetAngle(l.clampAngle(l.cfg.ClosedAngle))
	l.hw.Green.Set(false)
	l.hw.Red.Set(true)
}

func (l *Lock) setOverride(now tick.Millis, on bool) {
	if on == l.override {
		return
	}
	// Both entering and leaving override pass through the locked
	// state, so the mechanism is never left where the dial put it.
	l.belief.Disarm()
	l.forceLocked(now, "override toggle", PatternLocked)
	l.override = on

	oldState, newState := "OFF", "ON"
	if !on {
		oldState, newState = "ON", "OFF"
	}
	l.debugLog("admin override "+newState)
	l.rec.state(now, "override", oldState, newState, "admin command")
}

func (l *Lock) advance(now tick.Millis) {
	if l.override {
		// The dial drives the servo directly, scaled to its range.
		max := l.hw.Dial.Max()
		if max <= 0 {
			max = 1
		}
		angle := l.hw.Dial.Read() * l.hw.Servo.MaxAngle() / max
		l.hw.Servo.SetAngle(l.clampAngle(angle))
		return
	}

	if l.door == DoorUnlocked && l.relock.Expired(now) {
		l.relock.Disarm()
		l.debugLog("relock timer expired")
		l.forceLocked(now, "relock timer expired", PatternLocked)
	}

	if l.belief.Expired(now) {
		l.belief.Disarm()
		l.debugLog("credential grant belief expired")
	}
}

func (l *Lock) setDoor(now tick.Millis, next DoorState, reason string) {
	if l.door == next {
		return
	}
	l.debugLog("door state change", "from", l.door.String(), "to", next.String(), "reason", reason)
	l.rec.state(now, "door", l.door.String(), next.String(), reason)
	l.door = next
}

func (l *Lock) clampAngle(angle int) int {
	if angle < 0 {
		return 0
	}
	if max := l.hw.Servo.MaxAngle(); angle > max {
		return max
	}
	return angle
}

// debugLog logs a debug message if logging is enabled.
func (l *Lock) debugLog(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}
