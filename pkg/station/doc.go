// Package station implements the three cooperating nodes of a LATCH
// door installation.
//
// # Roles
//
//   - Entry: reads proximity credentials, runs phase 1 of the
//     handshake and opens the code window on a grant.
//   - Keypad: captures digits while enabled and runs phase 2.
//   - Lock: drives the mechanism, decides the final unlock and owns
//     the relock timer and the admin override mode.
//
// No station owns the authorization decision. Each one reacts to bus
// messages and local sensors, keeps its own belief about the handshake
// and re-validates every incoming decision against that belief.
//
// # Loop model
//
// A station is a state machine with a single Update entry point. Each
// pass drains the bus inbox, polls local hardware, advances timers and
// the feedback sequencer. All mutation happens inside the pass, so
// stations take no locks; the Runner serializes passes on one
// goroutine.
//
// # Defenses
//
// Three mechanisms keep a station safe against delayed, duplicated or
// lost traffic: decisions older than the response-age bound are
// discarded, decisions outside the station's current phase are
// discarded, and every open window has a local expiry that forces the
// safe state without any message arriving. A dropped or stale message
// can only prevent an unlock, never cause one.
package station
