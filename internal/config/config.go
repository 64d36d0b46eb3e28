// Package config manages godash7 daemon configuration using koanf/v2.
//
// Supports YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dantte-lp/godash7/internal/mac"
	"github.com/dantte-lp/godash7/internal/radio"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete godash7 daemon configuration.
type Config struct {
	Netconf NetconfConfig `koanf:"netconf"`
	Radio   RadioConfig   `koanf:"radio"`
	ISF     ISFConfig     `koanf:"isf"`
	Server  ServerConfig  `koanf:"server"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
}

// NetconfConfig holds the persisted network-configuration defaults
// (spec.md §3's NetConfig) used when no ISF store is mounted, as the
// seed of the in-memory ISF fixture.
type NetconfConfig struct {
	// Subnet is this device's subnet byte (ds in spec.md §4.6).
	Subnet uint8 `koanf:"subnet"`
	// BSubnet is the subnet byte used for background/advertising frames.
	BSubnet uint8 `koanf:"b_subnet"`
	// DDFlags carries the dialog-discovery flag bits.
	DDFlags uint8 `koanf:"dd_flags"`
	// BAttempts is the redundant-transmission count given to each beacon.
	BAttempts uint8 `koanf:"b_attempts"`
	// Active lists the active device classes: "endpoint", "beacons",
	// "gateway", "subcontroller", "external_event", "rtc_scheduler".
	Active []string `koanf:"active"`
	// HoldLimit is hold_cycle's ceiling before transitioning to sleep.
	HoldLimit uint16 `koanf:"hold_limit"`
	// Role is "endpoint" or "non_endpoint".
	Role string `koanf:"role"`
	// LinkQual is phymac.link_qual, the link-budget filter threshold.
	LinkQual int32 `koanf:"link_qual"`
}

// ActiveClass resolves the configured Active class names to a
// mac.ActiveClass bitmap. Unrecognized names are ignored.
func (n NetconfConfig) ActiveClass() mac.ActiveClass {
	var c mac.ActiveClass
	for _, name := range n.Active {
		switch strings.ToLower(name) {
		case "endpoint":
			c |= mac.ClassEndpoint
		case "beacons":
			c |= mac.ClassBeacons
		case "gateway":
			c |= mac.ClassGateway
		case "subcontroller":
			c |= mac.ClassSubcontroller
		case "external_event":
			c |= mac.ClassExternalEvent
		case "rtc_scheduler":
			c |= mac.ClassRTCScheduler
		}
	}
	return c
}

// RoleValue resolves Role to a mac.Role.
func (n NetconfConfig) RoleValue() mac.Role {
	if strings.ToLower(n.Role) == "non_endpoint" {
		return mac.RoleNonEndpoint
	}
	return mac.RoleEndpoint
}

// NetConfig converts to a mac.NetConfig for engine construction.
func (n NetconfConfig) NetConfig() mac.NetConfig {
	return mac.NetConfig{
		Subnet:    n.Subnet,
		BSubnet:   n.BSubnet,
		DDFlags:   n.DDFlags,
		BAttempts: n.BAttempts,
		Active:    n.ActiveClass(),
		HoldLimit: n.HoldLimit,
		Role:      n.RoleValue(),
	}
}

// RadioConfig holds the software radio simulator's configuration
// (internal/radio.Config).
type RadioConfig struct {
	// GroupAddr is the UDP multicast group + port the simulated ether
	// is carried over.
	GroupAddr string `koanf:"group_addr"`
	// Interface is the network interface to join the multicast group
	// on (empty lets the kernel choose).
	Interface string `koanf:"interface"`
	// TicksPerByte is the simulated on-air time per payload byte.
	TicksPerByte int32 `koanf:"ticks_per_byte"`
	// BaseGuardTime is the fixed per-channel guard time reported by
	// DefaultTGD.
	BaseGuardTime int32 `koanf:"base_guard_time"`
	// CCABusyWindow is how long a channel stays "busy" after the last
	// frame seen on it, for TxCSMA's clear-channel assessment.
	CCABusyWindow time.Duration `koanf:"cca_busy_window"`
	// NoiseFloor is the RSSI reported when no recent frame was heard,
	// in dBm.
	NoiseFloor int32 `koanf:"noise_floor"`
	// SessionSubnet is the subnet byte stamped on every transmitted
	// frame.
	SessionSubnet uint8 `koanf:"session_subnet"`
}

// ToRadioConfig converts to a radio.Config for driver construction.
func (r RadioConfig) ToRadioConfig() radio.Config {
	return radio.Config{
		GroupAddr:     r.GroupAddr,
		Interface:     r.Interface,
		TicksPerByte:  r.TicksPerByte,
		BaseGuardTime: r.BaseGuardTime,
		CCABusyWindow: r.CCABusyWindow,
		NoiseFloor:    r.NoiseFloor,
		SessionSubnet: r.SessionSubnet,
	}
}

// ISFConfig locates the Indexed Subordinate File fixture backing the
// kernel's network/scan/beacon/RTC configuration.
type ISFConfig struct {
	// FixturePath is a YAML fixture file read by internal/isf.NewFileStore.
	// Empty means use the in-memory defaults seeded from Netconf.
	FixturePath string `koanf:"fixture_path"`
}

// ServerConfig holds the introspection HTTP endpoint configuration.
type ServerConfig struct {
	// Addr is the HTTP listen address (e.g., ":8080").
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults: a
// lone endpoint on subnet 0, talking over the simulator's default
// multicast group, serving introspection and metrics locally.
func DefaultConfig() *Config {
	return &Config{
		Netconf: NetconfConfig{
			Active:    []string{"endpoint"},
			HoldLimit: 3,
			Role:      "endpoint",
			LinkQual:  80,
		},
		Radio: RadioConfig{
			GroupAddr:     "239.192.7.7:47000",
			TicksPerByte:  1,
			BaseGuardTime: 5,
			CCABusyWindow: 20 * time.Millisecond,
			NoiseFloor:    -95,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for godash7 configuration.
// Variables are named GODASH7_<section>_<key>, e.g., GODASH7_SERVER_ADDR.
const envPrefix = "GODASH7_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (GODASH7_ prefix), and merges on top of DefaultConfig().
// Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	GODASH7_RADIO_GROUP_ADDR -> radio.group_addr
//	GODASH7_SERVER_ADDR      -> server.addr
//	GODASH7_METRICS_ADDR     -> metrics.addr
//	GODASH7_LOG_LEVEL        -> log.level
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms GODASH7_RADIO_GROUP_ADDR -> radio.group_addr.
// Strips the GODASH7_ prefix, lowercases, and replaces the first _
// (the section separator) with .
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"netconf.hold_limit":     defaults.Netconf.HoldLimit,
		"netconf.role":           defaults.Netconf.Role,
		"netconf.link_qual":      defaults.Netconf.LinkQual,
		"netconf.active":         defaults.Netconf.Active,
		"radio.group_addr":       defaults.Radio.GroupAddr,
		"radio.ticks_per_byte":   defaults.Radio.TicksPerByte,
		"radio.base_guard_time":  defaults.Radio.BaseGuardTime,
		"radio.cca_busy_window":  defaults.Radio.CCABusyWindow.String(),
		"radio.noise_floor":      defaults.Radio.NoiseFloor,
		"server.addr":            defaults.Server.Addr,
		"metrics.addr":           defaults.Metrics.Addr,
		"metrics.path":           defaults.Metrics.Path,
		"log.level":              defaults.Log.Level,
		"log.format":             defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyServerAddr indicates the introspection HTTP listen address is empty.
	ErrEmptyServerAddr = errors.New("server.addr must not be empty")

	// ErrEmptyRadioGroupAddr indicates the radio simulator's multicast group is empty.
	ErrEmptyRadioGroupAddr = errors.New("radio.group_addr must not be empty")

	// ErrInvalidRole indicates netconf.role is neither endpoint nor non_endpoint.
	ErrInvalidRole = errors.New("netconf.role must be endpoint or non_endpoint")

	// ErrInvalidHoldLimit indicates netconf.hold_limit is zero.
	ErrInvalidHoldLimit = errors.New("netconf.hold_limit must be >= 1")

	// ErrInvalidCCABusyWindow indicates radio.cca_busy_window is non-positive.
	ErrInvalidCCABusyWindow = errors.New("radio.cca_busy_window must be > 0")
)

// ValidRoles lists the recognized netconf.role strings.
var ValidRoles = map[string]bool{
	"endpoint":     true,
	"non_endpoint": true,
}

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return ErrEmptyServerAddr
	}

	if cfg.Radio.GroupAddr == "" {
		return ErrEmptyRadioGroupAddr
	}
	if cfg.Radio.CCABusyWindow <= 0 {
		return ErrInvalidCCABusyWindow
	}

	if cfg.Netconf.Role != "" && !ValidRoles[strings.ToLower(cfg.Netconf.Role)] {
		return ErrInvalidRole
	}
	if cfg.Netconf.HoldLimit < 1 {
		return ErrInvalidHoldLimit
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
