// Package discovery implements mDNS/DNS-SD discovery for LATCH
// installations.
//
// Two service types are used:
//
// # Broker Discovery (_mqtt._tcp)
//
// Stations that start without a configured broker address browse for an
// MQTT broker on the local network. Mosquitto and most other brokers can
// advertise this standard service type; FindBroker returns the first
// responder within the browse window.
//
// # Station Presence (_latch._tcp)
//
// Station binaries advertise one instance per device so an admin console
// can enumerate an installation without touching the bus. Instance name
// format: <site>-<device-id>. TXT records carry US (user), SI (site),
// DI (device id), RO (role) and optionally FW (firmware version). The
// advertised port is always 0: stations are bus clients and accept no
// inbound connections, the record is presence signaling only.
package discovery
