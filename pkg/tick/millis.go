package tick

import (
	"sync"
	"time"
)

// Millis is a monotonic millisecond counter that wraps at 2^32.
// Never compare two Millis values directly; use Since.
type Millis uint32

// Since returns now-then as a signed millisecond distance. The result is
// correct across counter wraparound while the real distance is below
// 2^31 ms. A non-negative result means then has been reached or passed.
func Since(now, then Millis) int32 {
	return int32(now - then)
}

// Add returns t advanced by d, truncated to whole milliseconds.
// Negative durations are ignored.
func Add(t Millis, d time.Duration) Millis {
	if d < 0 {
		return t
	}
	return t + Millis(d/time.Millisecond)
}

// Clock provides the current monotonic tick. Implementations must be
// safe for use from the owning station loop plus the bus receive path.
type Clock interface {
	// Now returns the current tick.
	Now() Millis
}

// SystemClock derives Millis from the Go runtime's monotonic clock.
// The zero value is not usable; call NewSystemClock.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a SystemClock starting near zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns milliseconds elapsed since the clock was created,
// wrapping at 2^32 like an embedded millis() counter.
func (c *SystemClock) Now() Millis {
	return Millis(time.Since(c.start) / time.Millisecond)
}

// Manual is a hand-advanced clock for tests and the scenario harness.
// The zero value starts at tick 0 and is ready to use.
type Manual struct {
	mu  sync.Mutex
	now Millis
}

// NewManual creates a manual clock starting at the given tick.
func NewManual(start Millis) *Manual {
	return &Manual{now: start}
}

// Now returns the current tick.
func (m *Manual) Now() Millis {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d (truncated to milliseconds).
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = Add(m.now, d)
}

// Set places the clock at an absolute tick. Used by wraparound tests.
func (m *Manual) Set(now Millis) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Compile-time interface satisfaction checks.
var (
	_ Clock = (*SystemClock)(nil)
	_ Clock = (*Manual)(nil)
)
