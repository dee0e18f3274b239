package discovery

import (
	"context"
	"time"
)

// Advertiser provides mDNS service advertising capabilities.
type Advertiser interface {
	// AdvertiseStation starts advertising a station's presence.
	// Multiple stations can be advertised from one process.
	AdvertiseStation(ctx context.Context, info *StationInfo) error

	// UpdateStation updates TXT records for an advertised station.
	UpdateStation(deviceID string, info *StationInfo) error

	// StopStation stops advertising a specific station.
	StopStation(deviceID string) error

	// StopAll stops all advertisements.
	StopAll()
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		Interface: "",
		TTL:       DefaultTTL,
	}
}
