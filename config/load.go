package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arrebarritra/inviwo/errors"
)

// Load reads a configuration file, chooses the codec from the file
// extension (.yaml/.yml or .json), applies environment overrides and
// validates the result. An empty path yields the defaults with
// environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapTransient(err, "config", "Load", "file read")
		}

		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.WrapInvalid(
					fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
					"config", "Load", fmt.Sprintf("parsing %q", path))
			}
		default:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, errors.WrapInvalid(
					fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
					"config", "Load", fmt.Sprintf("parsing %q", path))
			}
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from INVIWO_* environment variables.
// Credentials in particular tend to arrive this way rather than in a
// checked-in file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("INVIWO_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("INVIWO_NATS_USERNAME"); v != "" {
		cfg.NATS.Username = v
	}
	if v := os.Getenv("INVIWO_NATS_PASSWORD"); v != "" {
		cfg.NATS.Password = v
	}
	if v := os.Getenv("INVIWO_NATS_TOKEN"); v != "" {
		cfg.NATS.Token = v
	}
	if v := os.Getenv("INVIWO_NATS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.NATS.Timeout = Duration(d)
		}
	}
	if v := os.Getenv("INVIWO_WORKSPACE_DIR"); v != "" {
		cfg.Workspace.Dir = v
	}
	if v := os.Getenv("INVIWO_WORKSPACE_USE_KV"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Workspace.UseKV = b
		}
	}
	if v := os.Getenv("INVIWO_GATEWAY_ADDR"); v != "" {
		cfg.Gateway.Addr = v
	}
	if v := os.Getenv("INVIWO_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}
