package democonfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DiscoveryPort != DefaultDiscoveryPort {
		t.Errorf("DiscoveryPort = %d, want %d", cfg.DiscoveryPort, DefaultDiscoveryPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if cfg.LocalDiscovery {
		t.Error("LocalDiscovery should default to false")
	}
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile("/nonexistent/path.yaml")
	if err != nil {
		t.Fatalf("LoadFromFile should return defaults for missing file, got error: %v", err)
	}
	if cfg.DiscoveryPort != DefaultDiscoveryPort {
		t.Errorf("expected default DiscoveryPort %d, got %d", DefaultDiscoveryPort, cfg.DiscoveryPort)
	}
}

func TestLoadFromFile_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")

	yaml := `
node_id: "test-node-42"
discovery_port: 9876
local_discovery: true
log_level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.NodeID != "test-node-42" {
		t.Errorf("NodeID = %s", cfg.NodeID)
	}
	if cfg.DiscoveryPort != 9876 {
		t.Errorf("DiscoveryPort = %d, want 9876", cfg.DiscoveryPort)
	}
	if !cfg.LocalDiscovery {
		t.Error("LocalDiscovery should be true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
}

func TestLoadFromFile_UnreadableYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("not: valid: yaml: at: all:"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("LoadFromFile should fail on malformed YAML")
	}
}

func TestValidate_RejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DiscoveryPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should reject an out-of-range port")
	}
}

func TestValidate_RejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should reject an unknown log level")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("INSTANCECHART_NODE_ID", "env-node")
	t.Setenv("INSTANCECHART_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.NodeID != "env-node" {
		t.Errorf("NodeID = %s, want env-node", cfg.NodeID)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %s, want warn", cfg.LogLevel)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "demo.yaml")

	cfg := DefaultConfig()
	cfg.NodeID = "roundtrip"
	cfg.DiscoveryPort = 12345

	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	got, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if got.NodeID != "roundtrip" || got.DiscoveryPort != 12345 {
		t.Errorf("got %+v", got)
	}
}
