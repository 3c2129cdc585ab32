package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/samsaffron/agent-term/internal/agentapi"
	"github.com/samsaffron/agent-term/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status <run-id>",
	Short: "Show the backend's status for an agent run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := newClient(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		status, err := client.RunStatus(ctx, args[0])
		if errors.Is(err, agentapi.ErrRunNotFound) {
			fmt.Println(ui.Warn("run not found"))
			return nil
		}
		if err != nil {
			return err
		}

		switch status {
		case agentapi.RunRunning:
			fmt.Println(ui.Success(string(status)))
		case agentapi.RunCompleted:
			fmt.Println(string(status))
		default:
			fmt.Println(ui.Muted(string(status)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
