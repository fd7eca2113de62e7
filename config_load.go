package gawin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads and parses a config file from the given path.
// Supported formats: JSON (.json), YAML (.yaml, .yml).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q: use .json, .yaml, or .yml", ext)
	}

	return &cfg, nil
}

// ValidateConfig validates a Config for correctness.
func ValidateConfig(cfg Config) error {
	if len(cfg.Providers) == 0 {
		return fmt.Errorf("at least one provider is required in the fallback chain")
	}
	seen := make(map[string]bool, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if p == "" {
			return fmt.Errorf("provider names must be non-empty")
		}
		if seen[p] {
			return fmt.Errorf("provider %q appears twice in the chain", p)
		}
		seen[p] = true
	}

	switch cfg.DegradeMode {
	case "", DegradeGraceful, DegradeUnavailable:
	default:
		return fmt.Errorf("unknown degrade_mode: %q", cfg.DegradeMode)
	}

	switch cfg.History.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown history driver: %q", cfg.History.Driver)
	}
	if cfg.History.Enabled && cfg.History.Driver == "postgres" && cfg.History.DSN == "" {
		return fmt.Errorf("history driver postgres requires a dsn")
	}

	if cfg.Sessions.TTLSeconds < 0 || cfg.Sessions.SweepSeconds < 0 {
		return fmt.Errorf("session ttl and sweep interval must not be negative")
	}

	return nil
}
