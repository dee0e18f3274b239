// Package sim provides in-memory hardware for tests, scripted
// scenarios and stations running without peripherals.
//
// All types are safe for concurrent use: an interactive shell or test
// drives the inputs from one goroutine while the station loop polls
// from another.
package sim
