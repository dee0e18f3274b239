// Package wire defines the LATCH message contract: the JSON payloads
// exchanged between stations and the authorization backend, and the
// topic suffixes they travel on.
//
// # Envelope
//
// Every published message wraps its payload in a standard envelope
// carrying the sender's identity and a send timestamp:
//
//	{
//	  "device":     {"id": "front-door", "platform": "latch-go"},
//	  "sent_ts_ms": 103450,
//	  "data":       { ...payload... }
//	}
//
// sent_ts_ms is the sender's local monotonic millisecond tick, not wall
// time. Backends echo it back in phase-1 responses; the requesting
// station compares the echo against its own clock, so staleness checks
// never depend on clock synchronization between nodes.
//
// # Decoding
//
// Incoming traffic is decoded exactly once, at the transport boundary,
// into a Message: a closed union tagged by Kind. Stations switch on
// Kind and never see raw topics or raw JSON, which keeps stringly-typed
// comparisons out of protocol logic. Undecodable payloads surface as an
// error to be logged and dropped; they never reach a station.
package wire
