package session

import (
	"context"

	"github.com/samsaffron/agent-term/internal/agentapi"
)

// NoopStore is a Store that does nothing. Used when run recording is
// disabled.
type NoopStore struct{}

func (n *NoopStore) CreateRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	return nil
}

func (n *NoopStore) FinishRun(ctx context.Context, id, status, errText string) error { return nil }

func (n *NoopStore) UpdateCounts(ctx context.Context, id string, messages, toolCalls int) error {
	return nil
}

func (n *NoopStore) GetRun(ctx context.Context, id string) (*Run, error) { return nil, nil }

func (n *NoopStore) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	return nil, nil
}

func (n *NoopStore) CacheMessages(ctx context.Context, threadID string, msgs []agentapi.Message) error {
	return nil
}

func (n *NoopStore) CachedMessages(ctx context.Context, threadID string) ([]agentapi.Message, error) {
	return nil, nil
}

func (n *NoopStore) Close() error { return nil }
