// Package config holds the application settings: NATS connection,
// workspace persistence, property auto-linking and the serving
// endpoints. Settings load from a JSON or YAML file with environment
// variable overrides, and are accessed through a thread-safe wrapper.
package config

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/arrebarritra/inviwo/errors"
)

// Duration wraps time.Duration so config files can carry values like
// "5s" or "2m" in both JSON and YAML
type Duration time.Duration

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalJSON encodes the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts either a duration string or nanoseconds
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parsing duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("duration must be a string or integer: %s", data)
	}
	*d = Duration(n)
	return nil
}

// UnmarshalYAML accepts a duration string
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML encodes the duration as a string
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// NATSConfig configures the connection used for workspace persistence
type NATSConfig struct {
	URL           string   `json:"url" yaml:"url"`
	MaxReconnects int      `json:"max_reconnects,omitempty" yaml:"max_reconnects,omitempty"`
	ReconnectWait Duration `json:"reconnect_wait,omitempty" yaml:"reconnect_wait,omitempty"`
	Timeout       Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Username      string   `json:"username,omitempty" yaml:"username,omitempty"`
	Password      string   `json:"password,omitempty" yaml:"password,omitempty"`
	Token         string   `json:"token,omitempty" yaml:"token,omitempty"`
}

// WorkspaceConfig configures where workspaces are stored
type WorkspaceConfig struct {
	// Dir is the directory for file-based workspaces.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// UseKV enables NATS KV persistence alongside the filesystem.
	UseKV bool `json:"use_kv,omitempty" yaml:"use_kv,omitempty"`
}

// LinkingConfig gates automatic property linking. With an empty class
// list every property class is linkable.
type LinkingConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Classes []string `json:"classes,omitempty" yaml:"classes,omitempty"`
}

// IsLinkable reports whether properties of the class participate in
// automatic linking. Satisfies network.LinkSettings.
func (l LinkingConfig) IsLinkable(classIdentifier string) bool {
	if !l.Enabled {
		return false
	}
	return len(l.Classes) == 0 || slices.Contains(l.Classes, classIdentifier)
}

// GatewayConfig configures the websocket event gateway
type GatewayConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// MetricsConfig configures the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// Config is the complete application configuration
type Config struct {
	Version   string          `json:"version,omitempty" yaml:"version,omitempty"`
	NATS      NATSConfig      `json:"nats" yaml:"nats"`
	Workspace WorkspaceConfig `json:"workspace" yaml:"workspace"`
	Linking   LinkingConfig   `json:"linking" yaml:"linking"`
	Gateway   GatewayConfig   `json:"gateway" yaml:"gateway"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			MaxReconnects: -1,
			ReconnectWait: Duration(2 * time.Second),
			Timeout:       Duration(5 * time.Second),
		},
		Workspace: WorkspaceConfig{Dir: "workspaces"},
		Linking:   LinkingConfig{Enabled: true},
		Gateway:   GatewayConfig{Addr: ":8080"},
		Metrics:   MetricsConfig{Addr: ":9090"},
	}
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Workspace.UseKV && c.NATS.URL == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: nats.url required when workspace.use_kv is set", errors.ErrMissingConfig),
			"config", "Validate", "NATS settings")
	}
	if c.NATS.ReconnectWait < 0 || c.NATS.Timeout < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: negative duration", errors.ErrInvalidConfig),
			"config", "Validate", "NATS settings")
	}
	if c.Gateway.Enabled && c.Gateway.Addr == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: gateway.addr required when gateway is enabled", errors.ErrMissingConfig),
			"config", "Validate", "gateway settings")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: metrics.addr required when metrics are enabled", errors.ErrMissingConfig),
			"config", "Validate", "metrics settings")
	}
	return nil
}

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	clone := *c
	clone.Linking.Classes = slices.Clone(c.Linking.Classes)
	return &clone
}

// SafeConfig provides thread-safe access to a configuration shared
// between the network owner and tooling goroutines
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig wraps a configuration; nil means Default()
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = Default()
	}
	return &SafeConfig{config: cfg}
}

// Get returns a copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update validates and atomically replaces the configuration
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: nil config", errors.ErrInvalidConfig),
			"config", "Update", "argument check")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg.Clone()
	return nil
}

// IsLinkable reports linkability under the current configuration
func (sc *SafeConfig) IsLinkable(classIdentifier string) bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Linking.IsLinkable(classIdentifier)
}
