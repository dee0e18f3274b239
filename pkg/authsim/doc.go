// Package authsim is a simulated authorization backend for LATCH
// installations.
//
// The engine subscribes to a site's request suffixes, evaluates a YAML
// policy (credential allowlist plus bcrypt PIN hashes) and publishes
// grant or deny decisions the way the deployed backend does, echoing
// each request's sent_ts_ms so stations can bound decision age. An
// optional reply delay holds decisions back, which lets integration
// tests drive the stations' staleness defenses end to end.
//
// The engine satisfies station.Station and runs single-threaded under
// station.Runner, keeping time in the same millisecond tick domain as
// the stations it serves.
package authsim
