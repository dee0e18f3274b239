// Package bus connects LATCH stations to an MQTT broker.
//
// Every topic has the shape:
//
//	<user>/<site>/<device>/<suffix>
//
// A station publishes on its own device topic and subscribes with the
// site-wide filter <user>/<site>/+/<suffix>. Decisions published by
// one participant reach every peer interested in the suffix without
// anyone knowing the publisher's identity in advance.
//
// # Delivery
//
// Incoming traffic lands in a bounded Inbox that evicts the oldest
// delivery on overflow. The station loop drains the inbox on every
// pass, so a burst of traffic can delay a station but never wedge it.
//
// # Sessions
//
// The MQTT session reconnects forever at a fixed delay and restores
// its subscriptions on each new session. All publishes use QoS 0;
// stations tolerate message loss and never block on the broker.
package bus
