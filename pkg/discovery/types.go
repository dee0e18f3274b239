package discovery

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceTypeBroker is the standard service type MQTT brokers
	// advertise under.
	ServiceTypeBroker = "_mqtt._tcp"

	// ServiceTypeStation is the service type LATCH stations advertise
	// their presence under.
	ServiceTypeStation = "_latch._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultBrokerPort is assumed when a broker record carries no port.
	DefaultBrokerPort = 1883
)

// TXT record key constants for station presence.
const (
	TXTKeyUser     = "US" // Topic namespace user segment
	TXTKeySite     = "SI" // Topic namespace site segment
	TXTKeyDeviceID = "DI" // Device ID (topic segment)
	TXTKeyRole     = "RO" // Station role (entry, keypad, lock, ...)
	TXTKeyFirmware = "FW" // Firmware version (optional)
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second

	// DefaultTTL is the default DNS record TTL.
	DefaultTTL = 120 * time.Second
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// MaxTXTRecordSize is the maximum total TXT record size.
	MaxTXTRecordSize = 400
)

// Discovery errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotFound            = errors.New("service not found")
)

// StationInfo contains the information a station advertises.
type StationInfo struct {
	// User is the topic namespace user segment.
	User string

	// Site is the topic namespace site segment.
	Site string

	// DeviceID is the station's device ID.
	DeviceID string

	// Role is the station role (entry, keypad, lock, auth, admin).
	Role string

	// Firmware is an optional firmware version string.
	Firmware string
}

// Validate checks that every required advertisement field is present
// and usable as a topic segment.
func (i *StationInfo) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"user", i.User},
		{"site", i.Site},
		{"device id", i.DeviceID},
		{"role", i.Role},
	} {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingRequired, f.name)
		}
		if strings.ContainsAny(f.value, "/+#") {
			return fmt.Errorf("%w: %s contains topic wildcards", ErrInvalidTXTRecord, f.name)
		}
	}
	return nil
}

// InstanceName returns the mDNS instance name for this station,
// truncated to the DNS label limit.
func (i *StationInfo) InstanceName() string {
	name := i.Site + "-" + i.DeviceID
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// StationService represents a station found via mDNS.
type StationService struct {
	// InstanceName is the mDNS instance name (e.g., "garage-front-door").
	InstanceName string

	// Host is the hostname.
	Host string

	// Port is the advertised port (always 0, presence signaling only).
	Port uint16

	// Addresses contains resolved IP addresses.
	Addresses []string

	// User is the topic namespace user segment (from TXT "US").
	User string

	// Site is the topic namespace site segment (from TXT "SI").
	Site string

	// DeviceID is the station's device ID (from TXT "DI").
	DeviceID string

	// Role is the station role (from TXT "RO").
	Role string

	// Firmware is the optional firmware version (from TXT "FW").
	Firmware string
}

// BrokerService represents an MQTT broker found via mDNS.
type BrokerService struct {
	// InstanceName is the mDNS instance name.
	InstanceName string

	// Host is the hostname (e.g., "broker.local.").
	Host string

	// Port is the broker's listening port.
	Port uint16

	// Addresses contains resolved IP addresses.
	Addresses []string
}

// URL returns a broker URL usable by the bus layer, preferring a
// resolved address over the mDNS hostname.
func (b *BrokerService) URL() string {
	host := strings.TrimSuffix(b.Host, ".")
	if len(b.Addresses) > 0 {
		host = b.Addresses[0]
	}
	port := b.Port
	if port == 0 {
		port = DefaultBrokerPort
	}
	return fmt.Sprintf("tcp://%s:%d", host, port)
}
