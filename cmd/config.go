package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samsaffron/agent-term/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		apiKey := ""
		if cfg.Backend.APIKey != "" {
			apiKey = "<redacted>"
		}
		view := map[string]any{
			"backend": map[string]any{
				"base_url": cfg.Backend.BaseURL,
				"api_key":  apiKey,
			},
			"sessions": map[string]any{
				"enabled":      cfg.Sessions.Enabled,
				"path":         cfg.Sessions.Path,
				"max_age_days": cfg.Sessions.MaxAgeDays,
				"max_count":    cfg.Sessions.MaxCount,
			},
			"debug": map[string]any{
				"enabled": cfg.Debug.Enabled,
				"dir":     cfg.Debug.Dir,
			},
			"output": map[string]any{
				"width":    cfg.Output.Width,
				"no_color": cfg.Output.NoColor,
			},
		}

		out, err := yaml.Marshal(view)
		if err != nil {
			return err
		}
		if dir, err := config.GetConfigDir(); err == nil {
			fmt.Fprintf(os.Stderr, "# config dir: %s\n", dir)
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
