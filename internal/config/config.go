// Package config resolves a station binary's runtime settings from a
// YAML file and command-line flags. Flags win over the file, and
// anything left unset falls back to the stock defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/latch-protocol/latch-go/pkg/bus"
	"github.com/latch-protocol/latch-go/pkg/station"
)

// ErrInvalidConfig is wrapped by all resolution failures.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// File is the YAML schema shared by every station binary. All fields
// are optional in the file; required values may instead come from
// flags.
type File struct {
	// User is the account segment of the topic namespace.
	User string `yaml:"user,omitempty"`

	// Site groups the stations guarding one door.
	Site string `yaml:"site,omitempty"`

	// Device is this station's device ID.
	Device string `yaml:"device,omitempty"`

	// Broker describes the MQTT broker connection.
	Broker BrokerFile `yaml:"broker,omitempty"`

	// Protocol overrides individual handshake timing constants.
	Protocol ProtocolFile `yaml:"protocol,omitempty"`

	// Log configures debug and event logging.
	Log LogFile `yaml:"log,omitempty"`

	// Advertise controls mDNS presence advertising (default true).
	Advertise *bool `yaml:"advertise,omitempty"`

	// Lock holds the actuator-only mechanism settings. Ignored by the
	// other station binaries.
	Lock LockFile `yaml:"lock,omitempty"`
}

// BrokerFile is the broker section of a station config file.
type BrokerFile struct {
	// URL is the broker address (e.g. "tcp://broker.local:1883").
	// Empty means discover via mDNS, falling back to localhost.
	URL string `yaml:"url,omitempty"`

	// Username and Password authenticate against the broker.
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// ProtocolFile overrides handshake timing. Zero values keep the stock
// defaults.
type ProtocolFile struct {
	CodeLength       int    `yaml:"code_length,omitempty"`
	MaxResponseAgeMS uint32 `yaml:"max_response_age_ms,omitempty"`
	CodeWindowMS     uint32 `yaml:"code_window_ms,omitempty"`
	UnlockTimeMS     uint32 `yaml:"unlock_time_ms,omitempty"`
	DisplayHoldMS    uint32 `yaml:"display_hold_ms,omitempty"`
	BacklightHoldMS  uint32 `yaml:"backlight_hold_ms,omitempty"`
}

// LogFile is the logging section of a station config file.
type LogFile struct {
	// Level is the debug log level: debug, info, warn or error.
	Level string `yaml:"level,omitempty"`

	// EventFile, when set, appends the structured bus event stream to
	// this path (CBOR, readable with latch-log).
	EventFile string `yaml:"event_file,omitempty"`
}

// LockFile holds the actuator mechanism geometry.
type LockFile struct {
	OpenAngle   *int `yaml:"open_angle,omitempty"`
	ClosedAngle *int `yaml:"closed_angle,omitempty"`
}

// ParseFile parses YAML data into a File.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &f, nil
}

// LoadFile reads and parses a station config file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseFile(data)
}

// Options carries the flag values a station binary collects. Empty
// strings mean the flag was not set and the file value (or default)
// applies.
type Options struct {
	ConfigPath   string
	BrokerURL    string
	User         string
	Site         string
	Device       string
	LogLevel     string
	EventLogPath string

	// NoAdvertise disables mDNS presence advertising.
	NoAdvertise bool

	// DefaultDevice seeds the device ID when neither flag nor file
	// names one. Each binary supplies its role's stock ID.
	DefaultDevice string
}

// Settings is a station binary's fully resolved runtime configuration.
type Settings struct {
	// Scope is the station's topic namespace.
	Scope bus.Scope

	// BrokerURL is the broker address. Empty means the binary should
	// discover one via mDNS before connecting.
	BrokerURL      string
	BrokerUsername string
	BrokerPassword string

	// Protocol is the installation's handshake timing.
	Protocol station.ProtocolConfig

	// LogLevel is the debug log level.
	LogLevel slog.Level

	// EventLogPath is the CBOR event stream file ("" = disabled).
	EventLogPath string

	// Advertise controls mDNS presence advertising.
	Advertise bool

	// OpenAngle and ClosedAngle are the actuator mechanism geometry.
	// Only the lock binary reads them.
	OpenAngle   int
	ClosedAngle int
}

// Resolve merges the config file named by opts (when any) under the
// flag values and validates the result.
func Resolve(opts Options) (*Settings, error) {
	file := &File{}
	if opts.ConfigPath != "" {
		loaded, err := LoadFile(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		file = loaded
	}

	s := &Settings{
		Scope: bus.Scope{
			User:     firstOf(opts.User, file.User),
			Site:     firstOf(opts.Site, file.Site),
			DeviceID: firstOf(opts.Device, file.Device, opts.DefaultDevice),
		},
		BrokerURL:      firstOf(opts.BrokerURL, file.Broker.URL),
		BrokerUsername: file.Broker.Username,
		BrokerPassword: file.Broker.Password,
		Protocol:       file.Protocol.apply(station.DefaultProtocolConfig()),
		EventLogPath:   firstOf(opts.EventLogPath, file.Log.EventFile),
		Advertise:      true,
	}

	lockDefaults := station.DefaultLockConfig()
	s.OpenAngle = lockDefaults.OpenAngle
	s.ClosedAngle = lockDefaults.ClosedAngle
	if file.Lock.OpenAngle != nil {
		s.OpenAngle = *file.Lock.OpenAngle
	}
	if file.Lock.ClosedAngle != nil {
		s.ClosedAngle = *file.Lock.ClosedAngle
	}

	if file.Advertise != nil {
		s.Advertise = *file.Advertise
	}
	if opts.NoAdvertise {
		s.Advertise = false
	}

	level, err := ParseLevel(firstOf(opts.LogLevel, file.Log.Level))
	if err != nil {
		return nil, err
	}
	s.LogLevel = level

	if err := s.Scope.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := s.Protocol.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return s, nil
}

// apply overlays the file's non-zero timing values on base.
func (p ProtocolFile) apply(base station.ProtocolConfig) station.ProtocolConfig {
	if p.CodeLength != 0 {
		base.CodeLength = p.CodeLength
	}
	if p.MaxResponseAgeMS != 0 {
		base.MaxResponseAge = time.Duration(p.MaxResponseAgeMS) * time.Millisecond
	}
	if p.CodeWindowMS != 0 {
		base.CodeWindow = time.Duration(p.CodeWindowMS) * time.Millisecond
	}
	if p.UnlockTimeMS != 0 {
		base.UnlockTime = time.Duration(p.UnlockTimeMS) * time.Millisecond
	}
	if p.DisplayHoldMS != 0 {
		base.DisplayHold = time.Duration(p.DisplayHoldMS) * time.Millisecond
	}
	if p.BacklightHoldMS != 0 {
		base.BacklightHold = time.Duration(p.BacklightHoldMS) * time.Millisecond
	}
	return base
}

// ParseLevel maps a level name to its slog level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch name {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, name)
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
