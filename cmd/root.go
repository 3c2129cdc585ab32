package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/samsaffron/agent-term/internal/agentapi"
	"github.com/samsaffron/agent-term/internal/config"
	"github.com/samsaffron/agent-term/internal/debuglog"
	"github.com/samsaffron/agent-term/internal/session"
)

var debugRaw bool

var rootCmd = &cobra.Command{
	Use:   "agent-term",
	Short: "Stream and inspect remote agent runs from the terminal",
	Long: `agent-term starts agent runs on a backend, streams their output live,
and rebuilds tool execution history from thread messages.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugRaw, "debug-raw", false, "log raw stream payloads to the debug log")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Output.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *agentapi.Client {
	return agentapi.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey)
}

func openStore(cfg *config.Config) session.Store {
	store, err := session.NewStore(cfg.Sessions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: run recording disabled: %v\n", err)
		return &session.NoopStore{}
	}
	return session.NewLoggingStore(store, func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
	})
}

func newDebugLogger(cfg *config.Config) *debuglog.Logger {
	if !cfg.Debug.Enabled && !debugRaw {
		return nil
	}
	logger, err := debuglog.New(cfg.Debug.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug logging disabled: %v\n", err)
		return nil
	}
	return logger
}
