package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleFile = `
user: alice
site: garage
device: front-door
broker:
  url: tcp://broker.local:1883
  username: stations
  password: hunter2
protocol:
  code_length: 6
  max_response_age_ms: 1500
log:
  level: debug
  event_file: entry.blog
advertise: false
lock:
  open_angle: 120
  closed_angle: 10
`

func TestParseFile(t *testing.T) {
	f, err := ParseFile([]byte(sampleFile))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if f.User != "alice" || f.Site != "garage" || f.Device != "front-door" {
		t.Errorf("scope = %q/%q/%q", f.User, f.Site, f.Device)
	}
	if f.Broker.URL != "tcp://broker.local:1883" {
		t.Errorf("Broker.URL = %q", f.Broker.URL)
	}
	if f.Broker.Username != "stations" || f.Broker.Password != "hunter2" {
		t.Errorf("broker credentials = %q/%q", f.Broker.Username, f.Broker.Password)
	}
	if f.Protocol.CodeLength != 6 {
		t.Errorf("Protocol.CodeLength = %d, want 6", f.Protocol.CodeLength)
	}
	if f.Log.EventFile != "entry.blog" {
		t.Errorf("Log.EventFile = %q", f.Log.EventFile)
	}
	if f.Advertise == nil || *f.Advertise {
		t.Errorf("Advertise = %v, want false", f.Advertise)
	}
	if f.Lock.OpenAngle == nil || *f.Lock.OpenAngle != 120 {
		t.Errorf("Lock.OpenAngle = %v, want 120", f.Lock.OpenAngle)
	}
}

func TestParseFileRejectsBadYAML(t *testing.T) {
	if _, err := ParseFile([]byte("user: [unclosed")); err == nil {
		t.Fatal("ParseFile() accepted malformed YAML")
	}
}

func TestResolveFlagsOnly(t *testing.T) {
	s, err := Resolve(Options{
		User:   "alice",
		Site:   "garage",
		Device: "front-door",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if s.Scope.User != "alice" || s.Scope.Site != "garage" || s.Scope.DeviceID != "front-door" {
		t.Errorf("Scope = %+v", s.Scope)
	}
	if s.BrokerURL != "" {
		t.Errorf("BrokerURL = %q, want empty (discover)", s.BrokerURL)
	}
	if s.Protocol.CodeLength != 4 {
		t.Errorf("Protocol.CodeLength = %d, want default 4", s.Protocol.CodeLength)
	}
	if s.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", s.LogLevel)
	}
	if !s.Advertise {
		t.Error("Advertise = false, want default true")
	}
	if s.OpenAngle != 90 || s.ClosedAngle != 0 {
		t.Errorf("angles = %d/%d, want defaults 90/0", s.OpenAngle, s.ClosedAngle)
	}
}

func TestResolveMergesFileUnderFlags(t *testing.T) {
	path := writeConfig(t, sampleFile)

	s, err := Resolve(Options{
		ConfigPath: path,
		Device:     "side-door", // flag beats the file's front-door
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if s.Scope.DeviceID != "side-door" {
		t.Errorf("Scope.DeviceID = %q, want flag value side-door", s.Scope.DeviceID)
	}
	if s.Scope.User != "alice" || s.Scope.Site != "garage" {
		t.Errorf("Scope = %+v, want file values", s.Scope)
	}
	if s.BrokerURL != "tcp://broker.local:1883" {
		t.Errorf("BrokerURL = %q", s.BrokerURL)
	}
	if s.Protocol.CodeLength != 6 {
		t.Errorf("Protocol.CodeLength = %d, want file value 6", s.Protocol.CodeLength)
	}
	if s.Protocol.MaxResponseAge != 1500*time.Millisecond {
		t.Errorf("Protocol.MaxResponseAge = %v, want 1.5s", s.Protocol.MaxResponseAge)
	}
	if s.Protocol.CodeWindow != 30*time.Second {
		t.Errorf("Protocol.CodeWindow = %v, want untouched default", s.Protocol.CodeWindow)
	}
	if s.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", s.LogLevel)
	}
	if s.Advertise {
		t.Error("Advertise = true, want file value false")
	}
	if s.OpenAngle != 120 || s.ClosedAngle != 10 {
		t.Errorf("angles = %d/%d, want file values 120/10", s.OpenAngle, s.ClosedAngle)
	}
}

func TestResolveRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{
			name: "MissingScope",
			opts: Options{User: "alice", Site: "garage"},
		},
		{
			name: "WildcardInDevice",
			opts: Options{User: "alice", Site: "garage", Device: "door+"},
		},
		{
			name: "UnknownLogLevel",
			opts: Options{User: "alice", Site: "garage", Device: "d", LogLevel: "chatty"},
		},
		{
			name: "MissingConfigFile",
			opts: Options{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Resolve(tt.opts); err == nil {
				t.Error("Resolve() accepted invalid options")
			}
		})
	}
}

func TestResolveRejectsBadProtocolOverride(t *testing.T) {
	path := writeConfig(t, `
user: alice
site: garage
device: front-door
protocol:
  code_length: -2
`)

	_, err := Resolve(Options{ConfigPath: path})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Resolve() error = %v, want ErrInvalidConfig", err)
	}
}

func TestResolveDefaultDevice(t *testing.T) {
	s, err := Resolve(Options{
		User: "alice", Site: "garage",
		DefaultDevice: "front-door",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s.Scope.DeviceID != "front-door" {
		t.Errorf("Scope.DeviceID = %q, want seeded default", s.Scope.DeviceID)
	}

	// An explicit flag still wins over the seed.
	s, err = Resolve(Options{
		User: "alice", Site: "garage",
		Device:        "side-door",
		DefaultDevice: "front-door",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s.Scope.DeviceID != "side-door" {
		t.Errorf("Scope.DeviceID = %q, want flag value", s.Scope.DeviceID)
	}
}

func TestResolveNoAdvertiseFlag(t *testing.T) {
	s, err := Resolve(Options{
		User: "alice", Site: "garage", Device: "d",
		NoAdvertise: true,
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s.Advertise {
		t.Error("Advertise = true, want false after -no-advertise")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    slog.Level
		wantErr bool
	}{
		{name: "Empty", in: "", want: slog.LevelInfo},
		{name: "Debug", in: "debug", want: slog.LevelDebug},
		{name: "Info", in: "info", want: slog.LevelInfo},
		{name: "Warn", in: "warn", want: slog.LevelWarn},
		{name: "Error", in: "error", want: slog.LevelError},
		{name: "Unknown", in: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "station.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}
