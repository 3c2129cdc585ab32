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

var stopCmd = &cobra.Command{
	Use:   "stop <run-id>",
	Short: "Ask the backend to stop an agent run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := newClient(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err = client.StopRun(ctx, args[0])
		if errors.Is(err, agentapi.ErrRunNotFound) {
			fmt.Println(ui.Warn("run not found; nothing to stop"))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(ui.Success("stop requested"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
