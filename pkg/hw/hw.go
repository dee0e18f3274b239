package hw

import "encoding/hex"

// Credential is the opaque identifier read from a proximity token.
type Credential struct {
	// UID is the token identifier, typically 4 or 7 bytes.
	UID []byte
}

// Hex returns the UID as a lowercase hex string, the form credential
// requests carry on the bus.
func (c Credential) Hex() string {
	return hex.EncodeToString(c.UID)
}

// Key is one keypad press.
type Key rune

// Control keys on the 4x4 pad. Everything else of interest is a
// digit.
const (
	// KeyClear empties the code buffer.
	KeyClear Key = '*'

	// KeySubmit sends the buffered code for verification.
	KeySubmit Key = '#'
)

// Digit reports whether the key is a numeric digit.
func (k Key) Digit() bool {
	return k >= '0' && k <= '9'
}

// CredentialReader detects proximity tokens.
type CredentialReader interface {
	// Poll returns the next detected credential. It must not block;
	// ok is false when no token is present.
	Poll() (c Credential, ok bool)
}

// Keypad reports key presses.
type Keypad interface {
	// Poll returns the next pressed key. It must not block; ok is
	// false when no press is pending.
	Poll() (k Key, ok bool)
}

// Display is a character display addressed by row.
type Display interface {
	// WriteLine replaces the text on the given row.
	WriteLine(row int, text string)

	// Clear blanks every row.
	Clear()

	// SetBacklight switches the backlight.
	SetBacklight(on bool)
}

// MotionSensor samples a presence detector.
type MotionSensor interface {
	// Sample reports whether motion is currently detected.
	Sample() bool
}

// BinaryOutput drives a single on/off line such as an LED, a buzzer
// or a relay.
type BinaryOutput interface {
	Set(on bool)
}

// AngleOutput drives a proportional actuator such as a lock servo.
type AngleOutput interface {
	// SetAngle moves the actuator to the given angle in degrees.
	// Callers clamp to [0, MaxAngle] before driving.
	SetAngle(degrees int)

	// MaxAngle returns the largest meaningful angle.
	MaxAngle() int
}

// AnalogInput samples a proportional input such as a potentiometer.
type AnalogInput interface {
	// Read returns the current sample in [0, Max].
	Read() int

	// Max returns the largest possible sample.
	Max() int
}
