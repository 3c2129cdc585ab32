package cmd

import (
	"sync"
	"testing"

	"github.com/samsaffron/agent-term/internal/agentapi"
)

func TestTallyConcurrentObserve(t *testing.T) {
	var counts tally

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				counts.observe(agentapi.Message{Type: agentapi.MessageAssistant})
				counts.observe(agentapi.Message{Type: agentapi.MessageTool})
			}
		}()
	}
	wg.Wait()

	if got := counts.messages.Load(); got != 1600 {
		t.Errorf("messages = %d, want 1600", got)
	}
	if got := counts.toolCalls.Load(); got != 800 {
		t.Errorf("tool calls = %d, want 800", got)
	}
}
