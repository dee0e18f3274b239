package discovery

import (
	"context"
	"time"
)

// Browser provides mDNS service browsing capabilities.
type Browser interface {
	// BrowseStations searches for LATCH stations. An empty site browses
	// every installation on the network; a non-empty site filters to one.
	// The channel is closed when the context is cancelled.
	BrowseStations(ctx context.Context, site string) (<-chan *StationService, error)

	// BrowseBrokers searches for MQTT brokers.
	BrowseBrokers(ctx context.Context) (<-chan *BrokerService, error)

	// FindBroker returns the first broker that answers, or ErrNotFound
	// when the context ends without one.
	FindBroker(ctx context.Context) (*BrokerService, error)
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout is the default timeout for browse operations.
	// Default: 10 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
		Interface:     "",
	}
}

// ServiceEntry is raw mDNS service entry data, decoupled from the
// underlying mDNS library so decoding can be tested without a network.
type ServiceEntry struct {
	Instance string
	Service  string
	Domain   string
	Host     string
	Port     uint16
	Text     []string
	Addrs    []string
}

// ToStationService converts a ServiceEntry to a StationService.
func (e *ServiceEntry) ToStationService() (*StationService, error) {
	txt := StringsToTXTRecords(e.Text)
	info, err := DecodeStationTXT(txt)
	if err != nil {
		return nil, err
	}

	return &StationService{
		InstanceName: e.Instance,
		Host:         e.Host,
		Port:         e.Port,
		Addresses:    e.Addrs,
		User:         info.User,
		Site:         info.Site,
		DeviceID:     info.DeviceID,
		Role:         info.Role,
		Firmware:     info.Firmware,
	}, nil
}

// ToBrokerService converts a ServiceEntry to a BrokerService.
// Broker records need no TXT data; host and port suffice.
func (e *ServiceEntry) ToBrokerService() *BrokerService {
	return &BrokerService{
		InstanceName: e.Instance,
		Host:         e.Host,
		Port:         e.Port,
		Addresses:    e.Addrs,
	}
}
