// Package tick provides the monotonic millisecond timebase used by all
// LATCH stations.
//
// Stations run on hardware whose native clock is a free-running 32-bit
// millisecond counter that wraps around roughly every 49.7 days. All
// "has this deadline passed" decisions therefore use signed difference
// arithmetic on Millis values instead of direct comparison:
//
//	int32(now-deadline) >= 0   // deadline reached, wraparound-safe
//
// This holds as long as the real distance between the two instants is
// below 2^31 milliseconds (~24.8 days), far beyond any protocol window.
//
// # Session timers
//
// A Session is a re-armable "active until" window. Arming a session
// unconditionally supersedes the previous deadline; there is no cancel
// primitive because every user of a session either re-arms it or lets it
// expire. Display holds, backlight windows, the PIN-entry window and the
// relock window are all sessions.
//
// # Clocks
//
// Clock is the read-only tick source. SystemClock derives Millis from the
// process monotonic clock; Manual is hand-advanced and drives tests and
// the scenario harness.
package tick
