package tick

import "time"

// Session is a re-armable "active until" window over the Millis timebase.
// The zero value is disarmed. Sessions are owned by a single station loop
// and are not safe for concurrent use.
type Session struct {
	expiresAt Millis
	armed     bool
}

// Arm sets the window to end d after now, superseding any prior deadline.
func (s *Session) Arm(now Millis, d time.Duration) {
	s.expiresAt = Add(now, d)
	s.armed = true
}

// Extend re-arms the window unconditionally. It is Arm under a name that
// documents sliding-window use: callers invoke it on every pass while the
// triggering condition (e.g. motion) persists.
func (s *Session) Extend(now Millis, d time.Duration) {
	s.Arm(now, d)
}

// Active reports whether the window is armed and not yet expired.
// Wraparound-safe: uses signed difference, never direct comparison.
func (s *Session) Active(now Millis) bool {
	return s.armed && Since(now, s.expiresAt) < 0
}

// Expired reports an armed window whose deadline has passed. It stays
// true until the session is re-armed or disarmed, letting a loop pass
// observe the expiry edge and act on it.
func (s *Session) Expired(now Millis) bool {
	return s.armed && Since(now, s.expiresAt) >= 0
}

// Disarm deactivates the window without waiting for expiry.
func (s *Session) Disarm() {
	s.armed = false
}

// Armed reports whether the window has been armed and not disarmed,
// regardless of expiry.
func (s *Session) Armed() bool {
	return s.armed
}

// Remaining returns milliseconds until expiry, or 0 when inactive.
func (s *Session) Remaining(now Millis) time.Duration {
	if !s.Active(now) {
		return 0
	}
	return time.Duration(-Since(now, s.expiresAt)) * time.Millisecond
}
