// Package harness runs YAML-scripted end-to-end scenarios against a
// complete in-process LATCH installation: the three stations and the
// authsim backend wired over the memory bus, stepped by a manual
// clock.
//
// A scenario is a list of steps. Each step performs one action
// (present a credential, press keys, toggle the override, advance the
// clock) and may then assert expectations against the cluster state
// (handshake phase, door state, display text, servo angle). Because
// the clock is manual, scenarios that span minutes of protocol time
// run in microseconds and are exactly reproducible.
package harness
