package session

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// StatusActive marks a run record whose stream is still open. Terminal
// records carry the stream session's terminal state name (completed,
// stopped, error, agent_not_running).
const StatusActive = "active"

// Run is one locally recorded agent run.
type Run struct {
	ID        string     `json:"id"`
	RunID     string     `json:"run_id"`    // Backend run identifier
	ThreadID  string     `json:"thread_id"` // Backend thread identifier
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
	Messages  int        `json:"messages,omitempty"`   // Finalized messages seen
	ToolCalls int        `json:"tool_calls,omitempty"` // Tool invocations seen
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// ListOptions configures run listing.
type ListOptions struct {
	ThreadID string // Filter by thread
	Status   string // Filter by status
	Limit    int    // Max results (0 = use default)
	Offset   int    // Pagination offset
}

// NewID generates a random run record identifier.
func NewID() string {
	var buf [16]byte
	rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}

// TruncateSummary returns the first line of content, truncated to 100 chars.
func TruncateSummary(content string) string {
	content = strings.TrimSpace(content)
	if idx := strings.Index(content, "\n"); idx != -1 {
		content = content[:idx]
	}
	if len(content) > 100 {
		content = content[:97] + "..."
	}
	return content
}
