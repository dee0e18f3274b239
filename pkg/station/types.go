package station

import (
	"errors"
	"fmt"
	"time"

	"github.com/latch-protocol/latch-go/pkg/pattern"
)

// Station errors.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingHW     = errors.New("missing hardware")
)

// Station roles, published in presence announcements.
const (
	RoleEntry  = "entry"
	RoleKeypad = "keypad"
	RoleLock   = "lock"
	RoleAuth   = "auth"
	RoleAdmin  = "admin"
)

// Phase is the stage of the two-factor handshake the entry station
// currently occupies.
type Phase uint8

const (
	// PhaseIdle - no handshake in progress.
	PhaseIdle Phase = iota

	// PhaseAwaitCredential - phase-1 request sent, decision pending.
	PhaseAwaitCredential

	// PhaseCodeWindow - credential granted, code entry window open.
	PhaseCodeWindow

	// PhaseGranted - code accepted, verdict on display.
	PhaseGranted

	// PhaseDenied - verdict on display after a denial.
	PhaseDenied
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseAwaitCredential:
		return "AWAIT_CREDENTIAL"
	case PhaseCodeWindow:
		return "CODE_WINDOW"
	case PhaseGranted:
		return "GRANTED"
	case PhaseDenied:
		return "DENIED"
	default:
		return "UNKNOWN"
	}
}

// DoorState is the lock station's mechanism state.
type DoorState uint8

const (
	// DoorLocked - mechanism closed.
	DoorLocked DoorState = iota

	// DoorUnlocked - mechanism open, relock timer armed.
	DoorUnlocked
)

// String returns the door state name.
func (s DoorState) String() string {
	switch s {
	case DoorLocked:
		return "LOCKED"
	case DoorUnlocked:
		return "UNLOCKED"
	default:
		return "UNKNOWN"
	}
}

// ProtocolConfig bundles the handshake constants every station honors.
// Values are per-installation configuration, not protocol logic.
type ProtocolConfig struct {
	// CodeLength is the number of digits a code must have.
	CodeLength int

	// MaxResponseAge bounds how old a phase-1 decision may be before
	// it is discarded as stale.
	MaxResponseAge time.Duration

	// CodeWindow is the time allowed to enter and submit a code after
	// a credential grant.
	CodeWindow time.Duration

	// UnlockTime is how long the mechanism stays open before the
	// relock timer forces it closed.
	UnlockTime time.Duration

	// DisplayHold is how long verdict text stays on the display.
	DisplayHold time.Duration

	// BacklightHold is the sliding window the backlight stays lit
	// after motion.
	BacklightHold time.Duration
}

// DefaultProtocolConfig returns the stock installation timing.
func DefaultProtocolConfig() ProtocolConfig {
	return ProtocolConfig{
		CodeLength:     4,
		MaxResponseAge: 2 * time.Second,
		CodeWindow:     30 * time.Second,
		UnlockTime:     5 * time.Second,
		DisplayHold:    4 * time.Second,
		BacklightHold:  10 * time.Second,
	}
}

// Validate checks the protocol constants.
func (c ProtocolConfig) Validate() error {
	if c.CodeLength <= 0 {
		return fmt.Errorf("%w: code length must be positive", ErrInvalidConfig)
	}
	if c.MaxResponseAge <= 0 {
		return fmt.Errorf("%w: max response age must be positive", ErrInvalidConfig)
	}
	if c.CodeWindow <= 0 {
		return fmt.Errorf("%w: code window must be positive", ErrInvalidConfig)
	}
	if c.UnlockTime <= 0 {
		return fmt.Errorf("%w: unlock time must be positive", ErrInvalidConfig)
	}
	if c.DisplayHold <= 0 {
		return fmt.Errorf("%w: display hold must be positive", ErrInvalidConfig)
	}
	if c.BacklightHold <= 0 {
		return fmt.Errorf("%w: backlight hold must be positive", ErrInvalidConfig)
	}
	return nil
}

// maxResponseAgeMillis returns the staleness bound in the tick domain.
func (c ProtocolConfig) maxResponseAgeMillis() int32 {
	return int32(c.MaxResponseAge / time.Millisecond)
}

// Feedback patterns. Content is station-local prompt material; the
// playback contract lives in the pattern package.
var (
	// PatternTap is the short blip confirming one keystroke.
	PatternTap = pattern.Pattern{40 * time.Millisecond}

	// PatternDenied plays on any denial.
	PatternDenied = pattern.Pattern{
		200 * time.Millisecond, 100 * time.Millisecond,
		200 * time.Millisecond, 100 * time.Millisecond,
		400 * time.Millisecond,
	}

	// PatternGranted plays when the code phase succeeds.
	PatternGranted = pattern.Pattern{
		80 * time.Millisecond, 60 * time.Millisecond,
		80 * time.Millisecond, 60 * time.Millisecond,
		250 * time.Millisecond,
	}

	// PatternLocked plays when the mechanism closes.
	PatternLocked = pattern.Pattern{150 * time.Millisecond}
)
