package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samsaffron/agent-term/internal/agentapi"
	"github.com/samsaffron/agent-term/internal/debuglog"
)

// State is the lifecycle state of a streaming session.
type State string

const (
	StateIdle            State = "idle"
	StateConnecting      State = "connecting"
	StateStreaming       State = "streaming"
	StateCompleted       State = "completed"
	StateStopped         State = "stopped"
	StateError           State = "error"
	StateAgentNotRunning State = "agent_not_running"
)

// Terminal reports whether no further events will be processed in this state.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateStopped, StateError, StateAgentNotRunning:
		return true
	}
	return false
}

// Backend is the slice of the agent API a session needs. *agentapi.Client
// satisfies it; tests substitute fakes.
type Backend interface {
	RunStatus(ctx context.Context, runID string) (agentapi.RunStatus, error)
	StreamRun(ctx context.Context, runID string, cb agentapi.StreamCallbacks) (func(), error)
	StopRun(ctx context.Context, runID string) error
}

// Callbacks notify the consumer of session progress. All callbacks are
// invoked without internal locks held, so they may call back into the
// session's accessors.
type Callbacks struct {
	// OnMessage fires once per finalized message that carries a stable
	// identifier. Messages without one are not yet persisted upstream and
	// are skipped. Never fired per chunk.
	OnMessage func(msg agentapi.Message)
	// OnClose fires exactly once, when the session reaches a terminal state.
	OnClose func(final State)
	// OnWarning carries non-fatal notices: a failed stop request, or a run
	// the backend still reports as executing after the stream dropped.
	OnWarning func(text string)
}

// Session tracks one agent run's live stream as a state machine:
// idle → connecting → streaming → {completed | stopped | error | agent_not_running}.
// At most one run is tracked at a time; Start tears down any previous run
// first. All exported methods and accessors are safe for concurrent use.
type Session struct {
	backend Backend
	cb      Callbacks
	debug   *debuglog.Logger

	mu         sync.Mutex
	state      State
	runID      string
	liveText   strings.Builder
	activeTool *ToolCall
	lastErr    string
	// transportErr holds a transport failure reported before the stream
	// closed, so reconciliation can preserve the original error text.
	transportErr string
	// closing is set at the start of finalization and never cleared for the
	// current run. It suppresses late transport callbacks and async results.
	closing bool
	// gen increments on every Start. Transport callbacks capture the value
	// current when their stream was opened; a mismatch means the callback
	// belongs to a torn-down run and must not touch the session. The old
	// transport always fires a deferred OnClose after cancel, which without
	// this check would reconcile against the new run.
	gen    uint64
	cancel func()
}

// NewSession creates a session over the given backend.
func NewSession(backend Backend, cb Callbacks) *Session {
	return &Session{backend: backend, cb: cb, state: StateIdle}
}

// SetDebugLogger attaches a raw payload logger. Call before Start.
func (s *Session) SetDebugLogger(l *debuglog.Logger) { s.debug = l }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LiveText returns the assistant text accumulated since the last message
// boundary.
func (s *Session) LiveText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveText.String()
}

// ActiveTool returns a copy of the in-flight tool call, or nil.
func (s *Session) ActiveTool() *ToolCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeTool == nil {
		return nil
	}
	tool := *s.activeTool
	return &tool
}

// LastError returns the most recent error message, or "".
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Start begins streaming the given run. The authoritative run status is
// checked first: if the run is not running the session goes straight to
// agent_not_running and no transport is opened. Any previously tracked run
// is torn down before the new one begins.
func (s *Session) Start(ctx context.Context, runID string) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	gen := s.gen
	s.state = StateIdle
	s.runID = runID
	s.liveText.Reset()
	s.activeTool = nil
	s.lastErr = ""
	s.transportErr = ""
	s.closing = false
	s.mu.Unlock()

	status, err := s.backend.RunStatus(ctx, runID)
	if err != nil {
		if errors.Is(err, agentapi.ErrRunNotFound) {
			s.finalize(gen, StateAgentNotRunning, "")
			return nil
		}
		s.finalize(gen, StateError, err.Error())
		return fmt.Errorf("check run status: %w", err)
	}
	if status != agentapi.RunRunning {
		s.debug.Notef(runID, "run status %q, not opening stream", status)
		s.finalize(gen, StateAgentNotRunning, "")
		return nil
	}

	s.mu.Lock()
	if s.closing || s.gen != gen {
		// Stop or a newer Start raced the status check.
		s.mu.Unlock()
		return nil
	}
	s.state = StateConnecting
	s.mu.Unlock()

	cancel, err := s.backend.StreamRun(ctx, runID, agentapi.StreamCallbacks{
		OnMessage: func(raw string) { s.handleRaw(gen, raw) },
		OnError:   func(err error) { s.handleTransportError(gen, err) },
		OnClose:   func() { s.handleTransportClose(gen) },
	})
	if err != nil {
		s.finalize(gen, StateError, err.Error())
		return fmt.Errorf("open stream: %w", err)
	}

	s.mu.Lock()
	if s.closing || s.gen != gen {
		s.mu.Unlock()
		cancel()
		return nil
	}
	s.cancel = cancel
	s.mu.Unlock()
	return nil
}

// Stop ends the session from the user's side. Local state flips to stopped
// immediately; the backend stop request is issued best-effort afterwards and
// a failure surfaces only as a warning. Calling Stop on an already-terminal
// session is a no-op.
func (s *Session) Stop(ctx context.Context) {
	s.mu.Lock()
	runID := s.runID
	gen := s.gen
	s.mu.Unlock()

	if !s.finalize(gen, StateStopped, "") {
		return
	}
	if runID == "" {
		return
	}
	if err := s.backend.StopRun(ctx, runID); err != nil {
		s.warn(fmt.Sprintf("stop request failed, the run may still be executing: %v", err))
	}
}

// handleRaw receives one raw transport line, parses it, and applies the
// resulting event. Late lines arriving after finalization, or from a
// superseded run's transport, are dropped.
func (s *Session) handleRaw(gen uint64, raw string) {
	s.mu.Lock()
	if s.closing || s.gen != gen {
		s.mu.Unlock()
		return
	}
	runID := s.runID
	s.mu.Unlock()

	s.debug.Rawf(runID, raw)
	s.apply(gen, Parse(raw))
}

// apply advances the state machine by one parsed event.
func (s *Session) apply(gen uint64, ev Event) {
	var deliver *agentapi.Message

	s.mu.Lock()
	if s.closing || s.gen != gen {
		s.mu.Unlock()
		return
	}
	if s.state == StateConnecting && ev.Kind != KindNone {
		s.state = StateStreaming
	}

	switch ev.Kind {
	case KindTextChunk:
		s.liveText.WriteString(ev.Text)
	case KindMessageComplete:
		// A message boundary resets transient streaming state.
		s.liveText.Reset()
		s.activeTool = nil
		if ev.Message != nil && ev.Message.ID != "" {
			deliver = ev.Message
		} else {
			s.debug.Notef(s.runID, "skipping message without stable id")
		}
	case KindToolStarted:
		// At most one active tool call is tracked for display.
		s.activeTool = ev.Tool
	case KindToolFinished:
		if s.activeTool != nil && s.activeTool.Index == ev.ToolIndex {
			s.activeTool = nil
		}
	case KindUnrecognized:
		s.debug.Notef(s.runID, "dropping unrecognized stream payload")
	}
	onMessage := s.cb.OnMessage
	s.mu.Unlock()

	if deliver != nil && onMessage != nil {
		onMessage(*deliver)
	}

	if ev.Kind == KindRunStatus {
		switch ev.Status {
		case StatusEnd:
			s.finalize(gen, StateCompleted, "")
		case StatusError:
			s.finalize(gen, StateError, ev.ErrText)
		}
	}
}

// handleTransportError records a transport failure. Resolution happens in
// handleTransportClose, which the transport guarantees to call afterwards.
func (s *Session) handleTransportError(gen uint64, err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	if !s.closing && s.gen == gen {
		s.transportErr = err.Error()
	}
	s.mu.Unlock()
}

// handleTransportClose fires when the stream ends. If the session saw no
// explicit terminal event the close is ambiguous and must be reconciled
// against the authoritative status endpoint. A close from a superseded run's
// transport (every teardown produces one) is ignored.
func (s *Session) handleTransportClose(gen uint64) {
	s.mu.Lock()
	if s.closing || s.gen != gen {
		s.mu.Unlock()
		return
	}
	runID := s.runID
	transportErr := s.transportErr
	s.mu.Unlock()

	s.reconcile(gen, runID, transportErr)
}

// finalize moves the session into a terminal state: cancels the transport,
// clears transient text/tool state, releases the run identifier, and invokes
// OnClose. It reports whether this call performed the finalization; repeat
// calls and calls carrying a superseded generation are no-ops.
func (s *Session) finalize(gen uint64, final State, errText string) bool {
	s.mu.Lock()
	if s.closing || s.gen != gen {
		s.mu.Unlock()
		return false
	}
	s.closing = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.liveText.Reset()
	s.activeTool = nil
	if errText != "" {
		s.lastErr = errText
	}
	s.state = final
	s.runID = ""
	onClose := s.cb.OnClose
	s.mu.Unlock()

	if onClose != nil {
		onClose(final)
	}
	return true
}

func (s *Session) warn(text string) {
	s.mu.Lock()
	onWarning := s.cb.OnWarning
	s.mu.Unlock()
	if onWarning != nil {
		onWarning(text)
	}
}
