// Package buslog captures structured events from the LATCH message bus
// and station state machines for offline analysis.
//
// Stations and the bus layer emit Events describing raw frames, decoded
// messages, state transitions and errors. A FileLogger appends them to a
// CBOR stream (integer keys, compact); cmd/latch-log views, filters,
// exports and summarizes those files. A SlogAdapter mirrors events to the
// console during development, and MultiLogger fans out to both at once.
//
// Event capture must never disrupt the protocol: loggers swallow their
// own errors, and NoopLogger (or a nil check at the call site via the
// helper funcs) disables capture entirely.
package buslog
