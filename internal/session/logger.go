package session

import (
	"context"
	"sync"

	"github.com/samsaffron/agent-term/internal/agentapi"
)

// WarnFunc is a function that logs warnings.
type WarnFunc func(format string, args ...any)

// LoggingStore wraps a Store and logs errors instead of silently discarding
// them. This preserves the best-effort semantics (recording never fails the
// streaming path) while providing visibility into persistence issues.
type LoggingStore struct {
	Store
	warnFunc WarnFunc
	mu       sync.Mutex
	warned   map[string]bool // Rate-limit warnings by operation type
}

// NewLoggingStore creates a new LoggingStore wrapper.
// The warnFunc is called when persistence operations fail.
func NewLoggingStore(store Store, warnFunc WarnFunc) *LoggingStore {
	return &LoggingStore{
		Store:    store,
		warnFunc: warnFunc,
		warned:   make(map[string]bool),
	}
}

// logOnce logs a warning only once per operation type to avoid spamming.
func (s *LoggingStore) logOnce(op string, err error) {
	if err == nil || s.warnFunc == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.warned[op] {
		return
	}
	s.warned[op] = true
	s.warnFunc("run store %s failed: %v", op, err)
}

// CreateRun wraps Store.CreateRun with error logging.
func (s *LoggingStore) CreateRun(ctx context.Context, r *Run) error {
	err := s.Store.CreateRun(ctx, r)
	s.logOnce("CreateRun", err)
	return err
}

// FinishRun wraps Store.FinishRun with error logging.
func (s *LoggingStore) FinishRun(ctx context.Context, id, status, errText string) error {
	err := s.Store.FinishRun(ctx, id, status, errText)
	s.logOnce("FinishRun", err)
	return err
}

// UpdateCounts wraps Store.UpdateCounts with error logging.
func (s *LoggingStore) UpdateCounts(ctx context.Context, id string, messages, toolCalls int) error {
	err := s.Store.UpdateCounts(ctx, id, messages, toolCalls)
	s.logOnce("UpdateCounts", err)
	return err
}

// CacheMessages wraps Store.CacheMessages with error logging.
func (s *LoggingStore) CacheMessages(ctx context.Context, threadID string, msgs []agentapi.Message) error {
	err := s.Store.CacheMessages(ctx, threadID, msgs)
	s.logOnce("CacheMessages", err)
	return err
}
