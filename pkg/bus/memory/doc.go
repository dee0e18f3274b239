// Package memory provides an in-process message bus with MQTT topic
// semantics. It backs tests and scripted scenarios that need several
// stations talking without a real broker.
package memory
