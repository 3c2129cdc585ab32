package debuglog

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"
)

func TestLoggerWritesEntries(t *testing.T) {
	logger, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Rawf("run-1", `data: {"type":"status"}`)
	logger.Notef("run-1", "reconciled to %s", "completed")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	file, err := os.Open(logger.Path())
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("bad log line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Type != "raw" || entries[0].Payload != `data: {"type":"status"}` {
		t.Errorf("entry[0] = %+v", entries[0])
	}
	if entries[1].Type != "note" || entries[1].Payload != "reconciled to completed" {
		t.Errorf("entry[1] = %+v", entries[1])
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Rawf("run-1", "payload")
	logger.Notef("run-1", "note %d", 1)
	if logger.Path() != "" {
		t.Errorf("Path = %q, want empty", logger.Path())
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestWriteAfterClose(t *testing.T) {
	logger, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	logger.Rawf("run-1", "late payload")
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
