package sim

import (
	"sync"

	"github.com/latch-protocol/latch-go/pkg/hw"
)

// Compile-time interface satisfaction checks.
var (
	_ hw.CredentialReader = (*Reader)(nil)
	_ hw.Keypad           = (*Keypad)(nil)
	_ hw.MotionSensor     = (*Motion)(nil)
	_ hw.AnalogInput      = (*Dial)(nil)
)

// Reader is a credential reader fed by Present.
type Reader struct {
	mu      sync.Mutex
	pending []hw.Credential
}

// NewReader creates an empty reader.
func NewReader() *Reader {
	return &Reader{}
}

// Present queues a token with the given UID for the next polls.
func (r *Reader) Present(uid []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, hw.Credential{UID: append([]byte(nil), uid...)})
}

// Poll returns the next queued credential.
func (r *Reader) Poll() (hw.Credential, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return hw.Credential{}, false
	}
	c := r.pending[0]
	r.pending = r.pending[1:]
	return c, true
}

// Keypad is a key source fed by Press.
type Keypad struct {
	mu      sync.Mutex
	pending []hw.Key
}

// NewKeypad creates an empty keypad.
func NewKeypad() *Keypad {
	return &Keypad{}
}

// Press queues key presses in order.
func (k *Keypad) Press(keys ...hw.Key) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pending = append(k.pending, keys...)
}

// Type queues every rune of s as a key press.
func (k *Keypad) Type(s string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, r := range s {
		k.pending = append(k.pending, hw.Key(r))
	}
}

// Poll returns the next queued key.
func (k *Keypad) Poll() (hw.Key, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.pending) == 0 {
		return 0, false
	}
	key := k.pending[0]
	k.pending = k.pending[1:]
	return key, true
}

// Motion is a presence detector with a settable state.
type Motion struct {
	mu      sync.Mutex
	present bool
}

// NewMotion creates a sensor reporting no motion.
func NewMotion() *Motion {
	return &Motion{}
}

// SetPresent sets the detector state.
func (m *Motion) SetPresent(present bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.present = present
}

// Sample reports the detector state.
func (m *Motion) Sample() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.present
}

// Dial is an analog input with a settable value.
type Dial struct {
	mu    sync.Mutex
	value int
	max   int
}

// NewDial creates a dial with the given full-scale value, at zero.
func NewDial(max int) *Dial {
	return &Dial{max: max}
}

// SetValue sets the sample, clamped to [0, Max].
func (d *Dial) SetValue(v int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > d.max {
		v = d.max
	}
	d.value = v
}

// Read returns the current sample.
func (d *Dial) Read() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Max returns the full-scale value.
func (d *Dial) Max() int {
	return d.max
}
