package discovery

import (
	"strings"
	"testing"
)

func TestStationInfoValidate(t *testing.T) {
	tests := []struct {
		name    string
		info    StationInfo
		wantErr bool
	}{
		{
			name: "ValidBasic",
			info: StationInfo{
				User:     "alice",
				Site:     "garage",
				DeviceID: "front-door",
				Role:     "entry",
			},
			wantErr: false,
		},
		{
			name: "ValidWithFirmware",
			info: StationInfo{
				User:     "alice",
				Site:     "garage",
				DeviceID: "door-lock",
				Role:     "lock",
				Firmware: "0.3.1",
			},
			wantErr: false,
		},
		{
			name: "MissingUser",
			info: StationInfo{
				Site:     "garage",
				DeviceID: "front-door",
				Role:     "entry",
			},
			wantErr: true,
		},
		{
			name: "MissingRole",
			info: StationInfo{
				User:     "alice",
				Site:     "garage",
				DeviceID: "front-door",
			},
			wantErr: true,
		},
		{
			name: "WildcardInSite",
			info: StationInfo{
				User:     "alice",
				Site:     "gar/age",
				DeviceID: "front-door",
				Role:     "entry",
			},
			wantErr: true,
		},
		{
			name: "WildcardInDeviceID",
			info: StationInfo{
				User:     "alice",
				Site:     "garage",
				DeviceID: "door+",
				Role:     "entry",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.info.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStationInfoInstanceName(t *testing.T) {
	info := StationInfo{Site: "garage", DeviceID: "front-door"}
	if got := info.InstanceName(); got != "garage-front-door" {
		t.Errorf("InstanceName() = %q, want garage-front-door", got)
	}

	long := StationInfo{Site: strings.Repeat("s", 40), DeviceID: strings.Repeat("d", 40)}
	if got := long.InstanceName(); len(got) != MaxInstanceNameLen {
		t.Errorf("InstanceName() length = %d, want %d", len(got), MaxInstanceNameLen)
	}
}

func TestBrokerServiceURL(t *testing.T) {
	tests := []struct {
		name string
		svc  BrokerService
		want string
	}{
		{
			name: "PrefersResolvedAddress",
			svc: BrokerService{
				Host:      "broker.local.",
				Port:      1883,
				Addresses: []string{"192.168.1.5", "fe80::1"},
			},
			want: "tcp://192.168.1.5:1883",
		},
		{
			name: "FallsBackToHostname",
			svc: BrokerService{
				Host: "broker.local.",
				Port: 8883,
			},
			want: "tcp://broker.local:8883",
		},
		{
			name: "DefaultPortWhenUnset",
			svc: BrokerService{
				Host: "broker.local",
			},
			want: "tcp://broker.local:1883",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.svc.URL(); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}
