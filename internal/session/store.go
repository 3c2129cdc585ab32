// Package session records agent runs the CLI has streamed and caches fetched
// thread histories, so listings and execution history work without the
// backend.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samsaffron/agent-term/internal/agentapi"
)

// Store is the interface for local run persistence.
type Store interface {
	// Run records
	CreateRun(ctx context.Context, r *Run) error
	FinishRun(ctx context.Context, id, status, errText string) error
	UpdateCounts(ctx context.Context, id string, messages, toolCalls int) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, opts ListOptions) ([]Run, error)

	// Cached thread history. CacheMessages replaces the whole cached history
	// for a thread: histories are rebuilt, never patched incrementally.
	CacheMessages(ctx context.Context, threadID string, msgs []agentapi.Message) error
	CachedMessages(ctx context.Context, threadID string) ([]agentapi.Message, error)

	// Lifecycle
	Close() error
}

// Config holds run storage configuration.
type Config struct {
	Enabled    bool   `mapstructure:"enabled"`      // Master switch
	Path       string `mapstructure:"path"`         // Override default database path
	MaxAgeDays int    `mapstructure:"max_age_days"` // Auto-delete after N days (0=never)
	MaxCount   int    `mapstructure:"max_count"`    // Keep at most N runs (0=unlimited)
}

// DefaultConfig returns the default run storage configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		MaxAgeDays: 0,
		MaxCount:   0,
	}
}

// GetDataDir returns the XDG data directory for agent-term.
// Uses $XDG_DATA_HOME if set, otherwise ~/.local/share
func GetDataDir() (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "agent-term"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "agent-term"), nil
}

// GetDBPath returns the path to the runs database.
func GetDBPath() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "runs.db"), nil
}

// NewStore creates a new Store based on the configuration.
// If run recording is disabled, returns a no-op store.
func NewStore(cfg Config) (Store, error) {
	if !cfg.Enabled {
		return &NoopStore{}, nil
	}
	return NewSQLiteStore(cfg)
}
