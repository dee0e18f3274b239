// Package pattern implements non-blocking playback of on/off timing
// sequences on a single binary output.
//
// Every station owns one Sequencer wired to its buzzer (or indicator)
// line and advances it once per loop pass. Patterns themselves are plain
// data; each station defines its own feedback content (denied, unlocked,
// key tap, ...) and the sequencer only supplies the timing mechanics.
//
// At most one pattern plays at a time. Start refuses while playback is
// active; a caller that wants to preempt must call Stop first. This keeps
// feedback deterministic when several protocol events land in one pass.
package pattern
