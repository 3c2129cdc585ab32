package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samsaffron/agent-term/internal/session"
	"github.com/samsaffron/agent-term/internal/stream"
)

var attachCmd = &cobra.Command{
	Use:   "attach <run-id>",
	Short: "Attach to an agent run that is already executing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := newClient(cfg)
		store := openStore(cfg)
		defer store.Close()
		dbg := newDebugLogger(cfg)
		defer dbg.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		record, err := store.GetRun(ctx, runID)
		if err != nil || record == nil {
			record = &session.Run{RunID: runID}
			if err := store.CreateRun(ctx, record); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not record run: %v\n", err)
			}
		}

		final := streamRun(ctx, cfg, client, dbg, record, store)

		if record.ThreadID != "" && final == stream.StateCompleted {
			cacheThread(client, store, record.ThreadID)
		}
		if final == stream.StateError || final == stream.StateAgentNotRunning {
			return fmt.Errorf("run finished with state %s", final)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(attachCmd)
}
