package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"recommendd/internal/common/fsutil"
)

// Config holds runtime parameters for recommendd.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr                string   `json:"addr" yaml:"addr" toml:"addr"`
	CatalogPath         string   `json:"catalog_path" yaml:"catalog_path" toml:"catalog_path"`
	LogLevel            string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	MetricsEnabled      bool     `json:"metrics_enabled" yaml:"metrics_enabled" toml:"metrics_enabled"`
	CORSEnabled         bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins         []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	ProbeTimeoutSeconds int      `json:"probe_timeout_seconds" yaml:"probe_timeout_seconds" toml:"probe_timeout_seconds"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml. A leading '~' in the path is expanded
// to the user's home directory.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	expanded, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(expanded)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(expanded)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyDefaults fills zero-valued fields with package defaults.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.CatalogPath == "" {
		c.CatalogPath = "catalog.yaml"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ProbeTimeoutSeconds <= 0 {
		c.ProbeTimeoutSeconds = 5
	}
}
