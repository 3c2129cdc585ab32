package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samsaffron/agent-term/internal/agentapi"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	cfg Config
}

// Schema for the runs database.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    thread_id TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    error TEXT,
    messages INTEGER DEFAULT 0,
    tool_calls INTEGER DEFAULT 0,
    started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    ended_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS thread_messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    thread_id TEXT NOT NULL,
    message_id TEXT NOT NULL,
    type TEXT NOT NULL,
    is_llm BOOLEAN DEFAULT FALSE,
    content TEXT,
    metadata TEXT,
    created_at TIMESTAMP NOT NULL,
    sequence INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_thread_id ON runs(thread_id);
CREATE INDEX IF NOT EXISTS idx_thread_messages_thread ON thread_messages(thread_id, sequence);

-- Metadata table for schema versioning
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT
);
`

// schemaVersion is the current schema version.
// - Fresh databases get the full schema from the schema const and start at this version
// - Existing databases run migrations to reach this version
// Increment when adding new migrations.
const schemaVersion = 1

// NewSQLiteStore creates a new SQLite-based run store.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	dbPath := cfg.Path
	if dbPath == "" {
		var err error
		dbPath, err = GetDBPath()
		if err != nil {
			return nil, fmt.Errorf("get db path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	store := &SQLiteStore{db: db, cfg: cfg}

	if err := store.cleanup(); err != nil {
		// Log but don't fail
		fmt.Fprintf(os.Stderr, "warning: run cleanup failed: %v\n", err)
	}

	return store, nil
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}

	var version int
	row := db.QueryRow(`SELECT value FROM metadata WHERE key = 'schema_version'`)
	var value string
	switch err := row.Scan(&value); err {
	case nil:
		fmt.Sscanf(value, "%d", &version)
	case sql.ErrNoRows:
		version = 0
	default:
		return err
	}

	if version == 0 {
		_, err := db.Exec(`INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)`,
			fmt.Sprintf("%d", schemaVersion))
		return err
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, schemaVersion)
	}
	return nil
}

// cleanup removes old runs based on MaxAgeDays and MaxCount settings.
func (s *SQLiteStore) cleanup() error {
	if s.cfg.MaxAgeDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -s.cfg.MaxAgeDays)
		if _, err := s.db.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff); err != nil {
			return fmt.Errorf("delete old runs: %w", err)
		}
	}
	if s.cfg.MaxCount > 0 {
		_, err := s.db.Exec(`
			DELETE FROM runs WHERE id NOT IN (
				SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
			)`, s.cfg.MaxCount)
		if err != nil {
			return fmt.Errorf("trim runs: %w", err)
		}
	}
	return nil
}

// CreateRun inserts a new run record. A missing ID or StartedAt is filled in.
func (s *SQLiteStore) CreateRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	if r.Status == "" {
		r.Status = StatusActive
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, run_id, thread_id, status, error, messages, tool_calls, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RunID, r.ThreadID, r.Status, r.Error, r.Messages, r.ToolCalls, r.StartedAt)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// FinishRun records the terminal status of a run.
func (s *SQLiteStore) FinishRun(ctx context.Context, id, status, errText string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, error = ?, ended_at = ? WHERE id = ?`,
		status, errText, time.Now(), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// UpdateCounts updates the message and tool-call tallies for a run.
func (s *SQLiteStore) UpdateCounts(ctx context.Context, id string, messages, toolCalls int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET messages = ?, tool_calls = ? WHERE id = ?`,
		messages, toolCalls, id)
	if err != nil {
		return fmt.Errorf("update counts: %w", err)
	}
	return nil
}

// GetRun loads one run record by local id, or nil if absent.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, run_id, thread_id, status, COALESCE(error, ''), messages, tool_calls, started_at, ended_at
		FROM runs WHERE id = ? OR run_id = ?`, id, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns run records, most recent first.
func (s *SQLiteStore) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	query := `
		SELECT id, run_id, thread_id, status, COALESCE(error, ''), messages, tool_calls, started_at, ended_at
		FROM runs WHERE 1=1`
	var args []any
	if opts.ThreadID != "" {
		query += ` AND thread_id = ?`
		args = append(args, opts.ThreadID)
	}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, opts.Status)
	}
	query += ` ORDER BY started_at DESC`
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows for scanRun.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	var ended sql.NullTime
	if err := sc.Scan(&r.ID, &r.RunID, &r.ThreadID, &r.Status, &r.Error,
		&r.Messages, &r.ToolCalls, &r.StartedAt, &ended); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		r.EndedAt = &t
	}
	return &r, nil
}

// CacheMessages replaces the cached history for a thread with the given
// snapshot.
func (s *SQLiteStore) CacheMessages(ctx context.Context, threadID string, msgs []agentapi.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache messages: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM thread_messages WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("clear cached messages: %w", err)
	}
	for i, msg := range msgs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO thread_messages (thread_id, message_id, type, is_llm, content, metadata, created_at, sequence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			threadID, msg.ID, string(msg.Type), msg.IsLLM,
			string(msg.Content), string(msg.Metadata), msg.CreatedAt, i); err != nil {
			return fmt.Errorf("insert cached message: %w", err)
		}
	}
	return tx.Commit()
}

// CachedMessages loads the cached history for a thread, in original order.
func (s *SQLiteStore) CachedMessages(ctx context.Context, threadID string) ([]agentapi.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, type, is_llm, COALESCE(content, ''), COALESCE(metadata, ''), created_at
		FROM thread_messages WHERE thread_id = ? ORDER BY sequence`, threadID)
	if err != nil {
		return nil, fmt.Errorf("load cached messages: %w", err)
	}
	defer rows.Close()

	var msgs []agentapi.Message
	for rows.Next() {
		var msg agentapi.Message
		var msgType, content, metadata string
		if err := rows.Scan(&msg.ID, &msgType, &msg.IsLLM, &content, &metadata, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cached message: %w", err)
		}
		msg.ThreadID = threadID
		msg.Type = agentapi.MessageType(msgType)
		if strings.TrimSpace(content) != "" {
			msg.Content = json.RawMessage(content)
		}
		if strings.TrimSpace(metadata) != "" {
			msg.Metadata = json.RawMessage(metadata)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
