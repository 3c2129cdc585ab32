package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/samsaffron/agent-term/internal/agentapi"
	"github.com/samsaffron/agent-term/internal/config"
	"github.com/samsaffron/agent-term/internal/debuglog"
	"github.com/samsaffron/agent-term/internal/session"
	"github.com/samsaffron/agent-term/internal/stream"
	"github.com/samsaffron/agent-term/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run <thread-id>",
	Short: "Start an agent run on a thread and stream its output",
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

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runID, err := client.StartRun(ctx, threadID)
		if err != nil {
			return fmt.Errorf("starting run: %w", err)
		}
		fmt.Println(ui.Muted("run " + runID))

		record := &session.Run{RunID: runID, ThreadID: threadID}
		if err := store.CreateRun(ctx, record); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not record run: %v\n", err)
		}

		final := streamRun(ctx, cfg, client, dbg, record, store)

		if final == stream.StateCompleted {
			cacheThread(client, store, threadID)
		}
		if final == stream.StateError || final == stream.StateAgentNotRunning {
			return fmt.Errorf("run finished with state %s", final)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// tally counts finalized messages and tool calls. Increments happen on the
// transport reader goroutine while totals are read from the command
// goroutine after close, so the counters are atomic.
type tally struct {
	messages  atomic.Int64
	toolCalls atomic.Int64
}

func (t *tally) observe(msg agentapi.Message) {
	t.messages.Add(1)
	if msg.Type == agentapi.MessageTool {
		t.toolCalls.Add(1)
	}
}

// streamRun attaches a streaming session to runID and renders its progress
// until the session reaches a terminal state. Ctrl-C stops the run.
func streamRun(ctx context.Context, cfg *config.Config, client *agentapi.Client, dbg *debuglog.Logger, record *session.Run, store session.Store) stream.State {
	var counts tally
	done := make(chan stream.State, 1)

	sess := stream.NewSession(client, stream.Callbacks{
		OnMessage: func(msg agentapi.Message) {
			counts.observe(msg)
			if msg.Type != agentapi.MessageAssistant {
				return
			}
			if text, ok := msg.ContentMap()["content"].(string); ok && text != "" {
				fmt.Print(ui.RenderMarkdown(text, cfg.Output.Width))
			}
		},
		OnWarning: func(text string) {
			fmt.Fprintln(os.Stderr, ui.Warn("Warning: "+text))
		},
		OnClose: func(final stream.State) {
			done <- final
		},
	})
	sess.SetDebugLogger(dbg)

	if err := sess.Start(ctx, record.RunID); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error("Error: "+err.Error()))
	}

	final := watchSession(ctx, sess, done)

	fmt.Println(statusLine(final, sess.LastError()))

	finishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.FinishRun(finishCtx, record.ID, string(final), sess.LastError()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not record run result: %v\n", err)
	}
	if err := store.UpdateCounts(finishCtx, record.ID, int(counts.messages.Load()), int(counts.toolCalls.Load())); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not record run counts: %v\n", err)
	}
	return final
}

// watchSession blocks until the session closes, mirroring tool activity to
// the terminal and translating Ctrl-C into a stop request.
func watchSession(ctx context.Context, sess *stream.Session, done chan stream.State) stream.State {
	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()

	interrupted := ctx.Done()
	var lastTool string
	for {
		select {
		case final := <-done:
			return final
		case <-ticker.C:
			tool := sess.ActiveTool()
			if tool == nil {
				lastTool = ""
				continue
			}
			if tool.Name != lastTool {
				lastTool = tool.Name
				fmt.Println(ui.Tool("⚙ " + tool.Name))
			}
		case <-interrupted:
			// Fires once; the session finishes via done.
			interrupted = nil
			fmt.Fprintln(os.Stderr, ui.Muted("stopping run..."))
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			sess.Stop(stopCtx)
			cancel()
		}
	}
}

func statusLine(final stream.State, lastErr string) string {
	switch final {
	case stream.StateCompleted:
		return ui.Success("✓ run completed")
	case stream.StateStopped:
		return ui.Muted("run stopped")
	case stream.StateAgentNotRunning:
		return ui.Warn("agent is not running")
	default:
		if lastErr != "" {
			return ui.Error("✗ run failed: " + lastErr)
		}
		return ui.Error("✗ run failed")
	}
}

// cacheThread refreshes the local message cache for a thread, best effort.
func cacheThread(client *agentapi.Client, store session.Store, threadID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	msgs, err := client.Messages(ctx, threadID)
	if err != nil {
		return
	}
	if err := store.CacheMessages(ctx, threadID, msgs); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not cache messages: %v\n", err)
	}
}
