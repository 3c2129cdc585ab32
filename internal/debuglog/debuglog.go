// Package debuglog captures raw stream payloads and session lifecycle notes
// to a file for debugging malformed or unexpected backend events. All Logger
// methods are nil-safe so call sites need no guards.
package debuglog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one logged record, serialized as a JSON line.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	RunID     string    `json:"run_id,omitempty"`
	Type      string    `json:"type"` // "raw" or "note"
	Payload   string    `json:"payload"`
}

// Logger appends entries to a per-invocation log file.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// DefaultDir returns the debug log directory, honoring $XDG_STATE_HOME.
func DefaultDir() (string, error) {
	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return filepath.Join(xdgState, "agent-term"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "state", "agent-term"), nil
}

// New creates a logger writing to a timestamped file under dir. An empty dir
// selects DefaultDir.
func New(dir string) (*Logger, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create debug log directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("stream-%s.jsonl", time.Now().Format("20060102-150405")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}
	return &Logger{file: file, path: path}, nil
}

// Path returns the log file location.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Rawf records one raw transport payload.
func (l *Logger) Rawf(runID, raw string) {
	l.write(Entry{Timestamp: time.Now(), RunID: runID, Type: "raw", Payload: raw})
}

// Notef records a formatted lifecycle note.
func (l *Logger) Notef(runID, format string, args ...any) {
	l.write(Entry{Timestamp: time.Now(), RunID: runID, Type: "note", Payload: fmt.Sprintf(format, args...)})
}

func (l *Logger) write(e Entry) {
	if l == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	l.file.Write(append(data, '\n'))
}

// Close flushes and closes the log file. Safe on nil and after Close.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
