// Package history reconstructs the ordered list of tool executions from a
// thread's stored message history, so past runs render the same way the live
// stream did. The list is built once per history snapshot and treated as
// immutable; when history changes, callers rebuild from scratch.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samsaffron/agent-term/internal/agentapi"
	"github.com/samsaffron/agent-term/internal/debuglog"
)

// Status is the outcome of one historical tool execution.
type Status string

const (
	// StatusRunning marks a call whose response never arrived, typically
	// because the run was interrupted.
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Execution is one completed (or interrupted) tool invocation, immutable
// once built.
type Execution struct {
	ID        string
	Name      string
	Status    Status
	StartedAt time.Time
	EndedAt   *time.Time
	// Result is the display text for the execution. For file-writing tools
	// this is the file body itself, for edits a before/after block, for
	// commands the unwrapped output.
	Result string
	// Language is a display hint derived from the target file extension;
	// "plaintext" when no better guess exists.
	Language string
}

// toolKind classifies tool functions into the extraction rule families.
type toolKind int

const (
	kindGeneric toolKind = iota
	kindFileWrite
	kindEdit
	kindCommand
)

// classifyTool maps a tool function name to its extraction family. Unknown
// names fall through to the generic pass-through rule.
func classifyTool(name string) toolKind {
	switch name {
	case "create_file", "write_file", "full_file_rewrite":
		return kindFileWrite
	case "str_replace", "edit_file":
		return kindEdit
	case "execute_command", "run_command":
		return kindCommand
	}
	return kindGeneric
}

// toolCallRequest is a structured tool-call request inside an assistant
// message's content.
type toolCallRequest struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

// toolResponse is a tool-role message's decoded content, keyed by the call
// identifier it answers.
type toolResponse struct {
	content   string
	isError   bool
	createdAt time.Time
}

// Builder constructs execution lists. The zero value is usable; the debug
// logger is optional.
type Builder struct {
	Debug *debuglog.Logger
}

// Build pairs each assistant tool-call request with the tool-role response
// sharing its call identifier and produces one Execution per request, in the
// chronological order of the originating assistant messages.
func Build(messages []agentapi.Message) []Execution {
	return Builder{}.Build(messages)
}

// Build is the method form of the package-level Build.
func (b Builder) Build(messages []agentapi.Message) []Execution {
	responses := indexResponses(messages)

	var executions []Execution
	for _, msg := range messages {
		if msg.Type != agentapi.MessageAssistant {
			continue
		}
		for _, call := range extractToolCalls(msg) {
			exec := Execution{
				ID:        call.ID,
				Name:      call.Function.Name,
				Status:    StatusRunning,
				StartedAt: msg.CreatedAt,
				Language:  "plaintext",
			}
			resp, ok := responses[call.ID]
			if ok {
				exec.Status = StatusCompleted
				if resp.isError {
					exec.Status = StatusError
				}
				ended := resp.createdAt
				exec.EndedAt = &ended
			}
			exec.Result, exec.Language = b.extractResult(call, resp, ok)
			executions = append(executions, exec)
		}
	}
	return executions
}

// indexResponses collects tool-role message contents keyed by call id.
func indexResponses(messages []agentapi.Message) map[string]toolResponse {
	responses := make(map[string]toolResponse)
	for _, msg := range messages {
		if msg.Type != agentapi.MessageTool {
			continue
		}
		content := msg.ContentMap()
		callID, _ := content["tool_call_id"].(string)
		if callID == "" {
			continue
		}
		text, _ := content["content"].(string)
		isError, _ := content["is_error"].(bool)
		responses[callID] = toolResponse{content: text, isError: isError, createdAt: msg.CreatedAt}
	}
	return responses
}

// extractToolCalls pulls structured tool-call requests out of an assistant
// message's content. Messages without tool calls yield nil.
func extractToolCalls(msg agentapi.Message) []toolCallRequest {
	content := msg.ContentMap()
	rawCalls, ok := content["tool_calls"].([]any)
	if !ok || len(rawCalls) == 0 {
		return nil
	}

	// Round-trip through JSON to get the typed shape without hand-walking
	// nested maps.
	data, err := json.Marshal(rawCalls)
	if err != nil {
		return nil
	}
	var calls []toolCallRequest
	if err := json.Unmarshal(data, &calls); err != nil {
		return nil
	}
	return calls
}

// extractResult applies the per-tool-kind extraction rules and returns the
// display text along with the detected language.
func (b Builder) extractResult(call toolCallRequest, resp toolResponse, haveResp bool) (string, string) {
	args := decodeArguments(call.Function.Arguments)
	raw := ""
	if haveResp {
		raw = resp.content
	}

	switch classifyTool(call.Function.Name) {
	case kindFileWrite:
		path := firstString(args, "file_path", "path", "target_file")
		body := firstString(args, "file_contents", "contents", "content", "code")
		if body != "" {
			return body, LanguageForPath(path)
		}
		// No usable body in the arguments; keep the raw response and note
		// the extraction failure. Non-fatal.
		b.Debug.Notef("", "no file body in %s arguments for call %s", call.Function.Name, call.ID)
		return raw, LanguageForPath(path)

	case kindEdit:
		oldStr, haveOld := args["old_string"].(string)
		newStr, haveNew := args["new_string"].(string)
		if haveOld && haveNew {
			combined := fmt.Sprintf("<<<<<<< ORIGINAL\n%s\n=======\n%s\n>>>>>>> UPDATED", oldStr, newStr)
			return combined, LanguageForPath(firstString(args, "file_path", "path", "target_file"))
		}
		return raw, "plaintext"

	case kindCommand:
		// Command responses may themselves be structured; unwrap the output
		// field when present.
		var wrapped struct {
			Output string `json:"output"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.Output != "" {
			return wrapped.Output, "plaintext"
		}
		return raw, "plaintext"
	}

	return raw, "plaintext"
}

// decodeArguments tolerates tool arguments arriving either as a JSON object
// or as a string-encoded object.
func decodeArguments(raw json.RawMessage) map[string]any {
	return agentapi.DecodeField(raw)
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
