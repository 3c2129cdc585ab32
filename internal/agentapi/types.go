package agentapi

import (
	"encoding/json"
	"time"
)

// RunStatus is the authoritative state of an agent run as reported by the
// backend's status endpoint.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunStopped   RunStatus = "stopped"
	RunFailed    RunStatus = "failed"
	RunError     RunStatus = "error"
	RunUnknown   RunStatus = "unknown"
)

// Terminal reports whether the status is a final state for the run.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunStopped, RunFailed, RunError:
		return true
	}
	return false
}

// MessageType identifies the outer discriminator of a backend message.
type MessageType string

const (
	MessageAssistant MessageType = "assistant"
	MessageUser      MessageType = "user"
	MessageTool      MessageType = "tool"
	MessageStatus    MessageType = "status"
	MessageSystem    MessageType = "system"
)

// Message is one message in a thread as the backend stores and streams it.
// Content and Metadata are kept raw: the backend double-encodes both fields
// on the stream (JSON strings containing JSON) but returns plain objects from
// the history endpoint. DecodeField accepts either shape.
type Message struct {
	ID        string          `json:"message_id"`
	ThreadID  string          `json:"thread_id"`
	Type      MessageType     `json:"type"`
	IsLLM     bool            `json:"is_llm_message"`
	Content   json.RawMessage `json:"content"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
}

// ContentMap decodes the Content field into a generic map, tolerating both
// the double-encoded and plain-object shapes. Decode failures yield an empty
// map rather than an error.
func (m Message) ContentMap() map[string]any {
	return DecodeField(m.Content)
}

// MetadataMap decodes the Metadata field like ContentMap.
func (m Message) MetadataMap() map[string]any {
	return DecodeField(m.Metadata)
}

// DecodeField decodes a message sub-field that may be either a JSON object or
// a JSON string containing an encoded object. Anything undecodable comes back
// as an empty map so callers never branch on decode errors.
func DecodeField(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}

	// Double-encoded: a JSON string whose value is itself JSON.
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(inner), &decoded); err == nil && decoded != nil {
			return decoded
		}
		return map[string]any{}
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded != nil {
		return decoded
	}
	return map[string]any{}
}
