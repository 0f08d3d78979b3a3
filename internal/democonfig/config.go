// Package democonfig handles YAML/env configuration for the cmd/agent demo.
// The instancechart library itself takes no configuration file — this
// package exists only for the demos.
package democonfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDiscoveryPort = 8080
	DefaultConfigPath    = "/etc/instancechart/demo.yaml"
	DefaultLogLevel      = "info"
)

// Config defines the settings cmd/agent reads before it opens a chart.
type Config struct {
	NodeID string `yaml:"node_id"` // random id generated if empty

	DiscoveryPort  int  `yaml:"discovery_port"`
	LocalDiscovery bool `yaml:"local_discovery"`

	Header uint64 `yaml:"header"`

	LogLevel string `yaml:"log_level"` // debug|info|warn|error
}

// DefaultConfig returns a Config with sane defaults.
func DefaultConfig() *Config {
	return &Config{
		DiscoveryPort: DefaultDiscoveryPort,
		LogLevel:      DefaultLogLevel,
	}
}

// LoadFromFile loads configuration from a YAML file, falling back to
// defaults if the file does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// ApplyEnvOverrides applies INSTANCECHART_* environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("INSTANCECHART_NODE_ID"); v != "" {
		c.NodeID = v
	}
	if v := os.Getenv("INSTANCECHART_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks that the config is usable.
func (c *Config) Validate() error {
	if c.DiscoveryPort < 1 || c.DiscoveryPort > 65535 {
		return fmt.Errorf("invalid discovery_port: %d", c.DiscoveryPort)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	return nil
}

// SaveToFile writes config to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}
