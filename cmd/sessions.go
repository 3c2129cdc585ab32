package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/samsaffron/agent-term/internal/session"
	"github.com/samsaffron/agent-term/internal/ui"
)

var (
	sessionsThread string
	sessionsStatus string
	sessionsLimit  int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded agent runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := openStore(cfg)
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		runs, err := store.ListRuns(ctx, session.ListOptions{
			ThreadID: sessionsThread,
			Status:   sessionsStatus,
			Limit:    sessionsLimit,
		})
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println(ui.Muted("no recorded runs"))
			return nil
		}

		fmt.Println(ui.Header(fmt.Sprintf("%s %s %s %s %5s %5s  %s",
			ui.TruncateColumn("ID", 10),
			ui.TruncateColumn("RUN", 14),
			ui.TruncateColumn("THREAD", 14),
			ui.TruncateColumn("STATUS", 12),
			"MSGS", "TOOLS", "STARTED")))
		for _, r := range runs {
			fmt.Printf("%s %s %s %s %5d %5d  %s\n",
				ui.TruncateColumn(r.ID, 10),
				ui.TruncateColumn(r.RunID, 14),
				ui.TruncateColumn(r.ThreadID, 14),
				ui.TruncateColumn(r.Status, 12),
				r.Messages, r.ToolCalls,
				r.StartedAt.Local().Format("2006-01-02 15:04"))
			if r.Error != "" {
				fmt.Println(ui.Muted("           " + session.TruncateSummary(r.Error)))
			}
		}
		return nil
	},
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsThread, "thread", "", "only runs for this thread")
	sessionsCmd.Flags().StringVar(&sessionsStatus, "status", "", "only runs with this status")
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(sessionsCmd)
}
