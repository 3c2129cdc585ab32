package session

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/samsaffron/agent-term/internal/agentapi"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(Config{
		Enabled: true,
		Path:    filepath.Join(t.TempDir(), "runs.db"),
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGetRun(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	r := &Run{RunID: "run-1", ThreadID: "t1"}
	if err := store.CreateRun(ctx, r); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if r.ID == "" {
		t.Fatal("CreateRun did not assign an id")
	}
	if r.Status != StatusActive {
		t.Errorf("status = %q, want %q", r.Status, StatusActive)
	}

	got, err := store.GetRun(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got == nil || got.RunID != "run-1" || got.ThreadID != "t1" {
		t.Errorf("got = %+v", got)
	}
	if got.EndedAt != nil {
		t.Errorf("ended at = %v, want nil for active run", got.EndedAt)
	}

	// Lookup by remote run id works too.
	byRemote, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun by run id: %v", err)
	}
	if byRemote == nil || byRemote.ID != r.ID {
		t.Errorf("byRemote = %+v", byRemote)
	}
}

func TestGetRunMissing(t *testing.T) {
	store := testStore(t)
	got, err := store.GetRun(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got != nil {
		t.Errorf("got = %+v, want nil", got)
	}
}

func TestFinishRun(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	r := &Run{RunID: "run-1", ThreadID: "t1"}
	if err := store.CreateRun(ctx, r); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := store.FinishRun(ctx, r.ID, "error", "model overloaded"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := store.UpdateCounts(ctx, r.ID, 7, 2); err != nil {
		t.Fatalf("UpdateCounts: %v", err)
	}

	got, err := store.GetRun(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != "error" || got.Error != "model overloaded" {
		t.Errorf("got = %+v", got)
	}
	if got.Messages != 7 || got.ToolCalls != 2 {
		t.Errorf("counts = %d/%d, want 7/2", got.Messages, got.ToolCalls)
	}
	if got.EndedAt == nil {
		t.Error("ended at not set")
	}
}

func TestListRunsFilters(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, spec := range []struct {
		thread string
		status string
	}{
		{"t1", "completed"},
		{"t1", "error"},
		{"t2", "completed"},
	} {
		r := &Run{
			RunID:     NewID(),
			ThreadID:  spec.thread,
			Status:    spec.status,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreateRun(ctx, r); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
	}

	all, err := store.ListRuns(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d runs, want 3", len(all))
	}
	// Most recent first.
	if !all[0].StartedAt.After(all[1].StartedAt) {
		t.Error("runs not ordered by started_at desc")
	}

	t1, err := store.ListRuns(ctx, ListOptions{ThreadID: "t1"})
	if err != nil {
		t.Fatalf("ListRuns thread: %v", err)
	}
	if len(t1) != 2 {
		t.Errorf("thread t1 runs = %d, want 2", len(t1))
	}

	completed, err := store.ListRuns(ctx, ListOptions{Status: "completed"})
	if err != nil {
		t.Fatalf("ListRuns status: %v", err)
	}
	if len(completed) != 2 {
		t.Errorf("completed runs = %d, want 2", len(completed))
	}

	limited, err := store.ListRuns(ctx, ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("ListRuns limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited runs = %d, want 1", len(limited))
	}
}

func TestCacheMessagesRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	msgs := []agentapi.Message{
		{
			ID:        "m1",
			Type:      agentapi.MessageUser,
			Content:   json.RawMessage(`{"content":"hi"}`),
			CreatedAt: time.Now().Truncate(time.Second),
		},
		{
			ID:        "m2",
			Type:      agentapi.MessageAssistant,
			IsLLM:     true,
			Content:   json.RawMessage(`{"content":"hello"}`),
			Metadata:  json.RawMessage(`{}`),
			CreatedAt: time.Now().Truncate(time.Second),
		},
	}
	if err := store.CacheMessages(ctx, "t1", msgs); err != nil {
		t.Fatalf("CacheMessages: %v", err)
	}

	got, err := store.CachedMessages(ctx, "t1")
	if err != nil {
		t.Fatalf("CachedMessages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0].ID != "m1" || got[1].ID != "m2" {
		t.Errorf("order = %s, %s", got[0].ID, got[1].ID)
	}
	if got[1].Type != agentapi.MessageAssistant || !got[1].IsLLM {
		t.Errorf("message = %+v", got[1])
	}
	if got[1].ContentMap()["content"] != "hello" {
		t.Errorf("content = %s", got[1].Content)
	}

	// A second snapshot fully replaces the first.
	if err := store.CacheMessages(ctx, "t1", msgs[:1]); err != nil {
		t.Fatalf("CacheMessages replace: %v", err)
	}
	got, err = store.CachedMessages(ctx, "t1")
	if err != nil {
		t.Fatalf("CachedMessages: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("after replace got %d messages, want 1", len(got))
	}
}

func TestCachedMessagesEmptyThread(t *testing.T) {
	store := testStore(t)
	got, err := store.CachedMessages(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("CachedMessages: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d messages, want 0", len(got))
	}
}

func TestCleanupMaxCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := NewSQLiteStore(Config{Enabled: true, Path: path})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		r := &Run{RunID: NewID(), ThreadID: "t1", StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.CreateRun(ctx, r); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
	}
	store.Close()

	// Reopening with MaxCount trims to the newest records.
	store, err = NewSQLiteStore(Config{Enabled: true, Path: path, MaxCount: 2})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d runs after cleanup, want 2", len(runs))
	}
}

func TestNewStoreDisabled(t *testing.T) {
	store, err := NewStore(Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, ok := store.(*NoopStore); !ok {
		t.Errorf("store = %T, want *NoopStore", store)
	}
}
