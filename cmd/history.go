package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samsaffron/agent-term/internal/agentapi"
	"github.com/samsaffron/agent-term/internal/history"
	"github.com/samsaffron/agent-term/internal/ui"
)

var historyCached bool

var historyCmd = &cobra.Command{
	Use:   "history <thread-id>",
	Short: "Show tool executions reconstructed from a thread's messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threadID := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := newClient(cfg)
		store := openStore(cfg)
		defer store.Close()
		dbg := newDebugLogger(cfg)
		defer dbg.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var msgs []agentapi.Message
		if historyCached {
			msgs, err = store.CachedMessages(ctx, threadID)
			if err != nil {
				return err
			}
		} else {
			msgs, err = client.Messages(ctx, threadID)
			if err != nil {
				cached, cacheErr := store.CachedMessages(ctx, threadID)
				if cacheErr != nil || len(cached) == 0 {
					return fmt.Errorf("fetching messages: %w", err)
				}
				fmt.Fprintln(os.Stderr, ui.Warn("Warning: backend unreachable, showing cached messages"))
				msgs = cached
			} else {
				if err := store.CacheMessages(ctx, threadID, msgs); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: could not cache messages: %v\n", err)
				}
			}
		}

		builder := history.Builder{Debug: dbg}
		executions := builder.Build(msgs)
		if len(executions) == 0 {
			fmt.Println(ui.Muted("no tool executions"))
			return nil
		}
		for _, exec := range executions {
			printExecution(exec)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyCached, "cached", false, "read from the local cache without contacting the backend")
	rootCmd.AddCommand(historyCmd)
}

func printExecution(exec history.Execution) {
	var marker string
	switch exec.Status {
	case history.StatusCompleted:
		marker = ui.Success("✓")
	case history.StatusError:
		marker = ui.Error("✗")
	default:
		marker = ui.Muted("…")
	}
	header := fmt.Sprintf("%s %s", marker, ui.Header(exec.Name))
	if exec.EndedAt != nil {
		header += ui.Muted(fmt.Sprintf("  (%s)", exec.EndedAt.Sub(exec.StartedAt).Round(time.Millisecond)))
	}
	fmt.Println(header)
	if exec.Result == "" {
		fmt.Println()
		return
	}
	body := ui.Highlight(exec.Result, exec.Language)
	fmt.Println(indent(body, "  "))
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n") + "\n"
}
