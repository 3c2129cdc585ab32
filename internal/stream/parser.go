// Package stream implements the client side of a live agent run: parsing the
// backend's per-event payloads, tracking one run's streaming session as a
// small state machine, and reconciling ambiguous stream terminations against
// the authoritative run-status endpoint.
package stream

import (
	"encoding/json"
	"strings"

	"github.com/samsaffron/agent-term/internal/agentapi"
)

// Kind discriminates parsed stream events.
type Kind int

const (
	// KindNone means the payload carried nothing actionable (empty line,
	// ignored status subtype). Callers skip these.
	KindNone Kind = iota
	// KindTextChunk is an incremental slice of assistant output.
	KindTextChunk
	// KindMessageComplete is a fully-formed message with a stable identifier.
	KindMessageComplete
	// KindToolStarted marks the beginning of a tool invocation.
	KindToolStarted
	// KindToolFinished marks the end of a tool invocation.
	KindToolFinished
	// KindRunStatus is a run-level control signal (start, end, fatal error).
	KindRunStatus
	// KindUnrecognized is a payload the parser could not interpret. It is
	// logged and dropped; it never aborts the session.
	KindUnrecognized
)

// Outcome classifies how a tool invocation ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeError     Outcome = "error"
)

// StatusKind classifies run-level control signals.
type StatusKind string

const (
	StatusStart StatusKind = "start"
	StatusEnd   StatusKind = "end"
	StatusError StatusKind = "error"
)

// ToolCall describes a tool invocation announced on the stream.
type ToolCall struct {
	Name      string
	Arguments map[string]any
	Index     int
	XMLTag    string
}

// Event is one normalized stream event. Exactly the fields relevant to Kind
// are populated.
type Event struct {
	Kind Kind

	// Text for KindTextChunk.
	Text string
	// Message for KindMessageComplete.
	Message *agentapi.Message
	// Tool for KindToolStarted.
	Tool *ToolCall
	// ToolIndex and Outcome for KindToolFinished.
	ToolIndex int
	Outcome   Outcome
	// Status and ErrText for KindRunStatus.
	Status  StatusKind
	ErrText string
}

// Legacy completion markers: older backend versions terminate the stream with
// these plain strings instead of a structured status payload. They must be
// recognized before attempting a JSON parse.
const (
	legacyNotAvailableMarker = "Run data not available for streaming"
	legacyEndedPrefix        = "Stream ended with status: completed"
)

// envelope is the structured wire shape of one stream payload.
type envelope struct {
	MessageID string          `json:"message_id"`
	ThreadID  string          `json:"thread_id"`
	Type      string          `json:"type"`
	IsLLM     bool            `json:"is_llm_message"`
	Content   json.RawMessage `json:"content"`
	Metadata  json.RawMessage `json:"metadata"`
}

// Parse turns one raw transport line into a normalized Event. It never
// panics and never returns an error: malformed payloads come back as
// KindUnrecognized and empty payloads as KindNone.
func Parse(raw string) Event {
	payload := strings.TrimSpace(raw)
	payload = strings.TrimPrefix(payload, "data:")
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Event{Kind: KindNone}
	}

	if payload == legacyNotAvailableMarker || strings.HasPrefix(payload, legacyEndedPrefix) {
		return Event{Kind: KindRunStatus, Status: StatusEnd}
	}

	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return Event{Kind: KindUnrecognized}
	}

	content := agentapi.DecodeField(env.Content)
	meta := agentapi.DecodeField(env.Metadata)

	switch agentapi.MessageType(env.Type) {
	case agentapi.MessageAssistant:
		return parseAssistant(env, content, meta)
	case agentapi.MessageStatus:
		return parseStatus(content)
	case agentapi.MessageTool, agentapi.MessageUser, agentapi.MessageSystem:
		return Event{Kind: KindMessageComplete, Message: envelopeMessage(env)}
	}
	return Event{Kind: KindUnrecognized}
}

// parseAssistant handles assistant payloads. The metadata stream_status marks
// a payload as one chunk of a still-forming message ("chunk"), the finalized
// message ("complete"), or is absent for messages that were never chunked.
func parseAssistant(env envelope, content, meta map[string]any) Event {
	switch stringField(meta, "stream_status") {
	case "chunk":
		return Event{Kind: KindTextChunk, Text: stringField(content, "content")}
	default:
		// "complete" and non-chunked messages both finalize.
		return Event{Kind: KindMessageComplete, Message: envelopeMessage(env)}
	}
}

// parseStatus dispatches on the inner status_type discriminator. Subtypes the
// client does not care about are skipped, not errors.
func parseStatus(content map[string]any) Event {
	switch stringField(content, "status_type") {
	case "tool_started":
		tool := &ToolCall{
			Name:   stringField(content, "function_name"),
			XMLTag: stringField(content, "xml_tag_name"),
			Index:  intField(content, "tool_index"),
		}
		if args, ok := content["arguments"].(map[string]any); ok {
			tool.Arguments = args
		}
		return Event{Kind: KindToolStarted, Tool: tool}
	case "tool_completed":
		return Event{Kind: KindToolFinished, ToolIndex: intField(content, "tool_index"), Outcome: OutcomeCompleted}
	case "tool_failed":
		return Event{Kind: KindToolFinished, ToolIndex: intField(content, "tool_index"), Outcome: OutcomeFailed}
	case "tool_error":
		return Event{Kind: KindToolFinished, ToolIndex: intField(content, "tool_index"), Outcome: OutcomeError}
	case "thread_run_end", "finish":
		return Event{Kind: KindRunStatus, Status: StatusEnd}
	case "thread_run_start":
		return Event{Kind: KindRunStatus, Status: StatusStart}
	case "error":
		return Event{Kind: KindRunStatus, Status: StatusError, ErrText: stringField(content, "message")}
	}
	return Event{Kind: KindNone}
}

// envelopeMessage converts a parsed envelope into the canonical message type
// shared with the history path.
func envelopeMessage(env envelope) *agentapi.Message {
	return &agentapi.Message{
		ID:       env.MessageID,
		ThreadID: env.ThreadID,
		Type:     agentapi.MessageType(env.Type),
		IsLLM:    env.IsLLM,
		Content:  env.Content,
		Metadata: env.Metadata,
	}
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func intField(m map[string]any, key string) int {
	// JSON numbers decode as float64 through the generic map path.
	if f, ok := m[key].(float64); ok {
		return int(f)
	}
	return 0
}
