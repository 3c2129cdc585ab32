package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000/api" {
		t.Errorf("base url = %q", cfg.Backend.BaseURL)
	}
	if !cfg.Sessions.Enabled {
		t.Error("sessions not enabled by default")
	}
	if cfg.Debug.Enabled {
		t.Error("debug enabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "agent-term")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := `backend:
  base_url: https://agents.example.com/api
  api_key: test-key
sessions:
  enabled: false
  max_count: 10
output:
  width: 100
`
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.BaseURL != "https://agents.example.com/api" {
		t.Errorf("base url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.APIKey != "test-key" {
		t.Errorf("api key = %q", cfg.Backend.APIKey)
	}
	if cfg.Sessions.Enabled {
		t.Error("sessions.enabled not read from file")
	}
	if cfg.Sessions.MaxCount != 10 {
		t.Errorf("max count = %d, want 10", cfg.Sessions.MaxCount)
	}
	if cfg.Output.Width != 100 {
		t.Errorf("width = %d, want 100", cfg.Output.Width)
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("AGENT_TERM_BACKEND_BASE_URL", "http://env.example.com/api")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.BaseURL != "http://env.example.com/api" {
		t.Errorf("base url = %q, want env override", cfg.Backend.BaseURL)
	}
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir: %v", err)
	}
	if dir != "/tmp/xdg/agent-term" {
		t.Errorf("dir = %q", dir)
	}
}
