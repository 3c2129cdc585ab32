// Package config loads agent-term configuration from the XDG config
// directory and environment variables via viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samsaffron/agent-term/internal/session"
	"github.com/spf13/viper"
)

type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Sessions session.Config `mapstructure:"sessions"`
	Debug    DebugConfig    `mapstructure:"debug"`
	Output   OutputConfig   `mapstructure:"output"`
}

// BackendConfig identifies the agent execution backend.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"` // API root, e.g. https://agents.example.com/api
	APIKey  string `mapstructure:"api_key"`  // Bearer token; empty for unauthenticated deployments
}

// DebugConfig configures raw stream payload logging.
type DebugConfig struct {
	Enabled bool   `mapstructure:"enabled"` // Write raw stream payloads to a log file
	Dir     string `mapstructure:"dir"`     // Override default directory
}

// OutputConfig configures terminal rendering.
type OutputConfig struct {
	Width   int  `mapstructure:"width"`    // Wrap width for markdown (0 = detect)
	NoColor bool `mapstructure:"no_color"` // Disable styled output
}

func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("backend.base_url", "http://localhost:8000/api")
	v.SetDefault("sessions.enabled", true)
	v.SetDefault("sessions.max_age_days", 0)
	v.SetDefault("sessions.max_count", 0)
	v.SetDefault("debug.enabled", false)
	v.SetDefault("output.width", 0)

	// Environment overrides: AGENT_TERM_BACKEND_BASE_URL etc.
	v.SetEnvPrefix("agent_term")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - won't error if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// GetConfigDir returns the XDG config directory for agent-term.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "agent-term"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "agent-term"), nil
}
