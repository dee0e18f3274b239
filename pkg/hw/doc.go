// Package hw defines the hardware capabilities stations are built
// against.
//
// Every capability is a small synchronous interface: non-blocking
// polls for inputs, immediate writes for outputs. Drivers for real
// peripherals and the in-memory implementations in hw/sim both satisfy
// them, so station logic never knows which it is talking to.
package hw
