package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samsaffron/agent-term/internal/agentapi"
)

// reconcileTimeout bounds the status query that resolves an ambiguous stream
// termination. The stream context may already be canceled by then, so the
// query runs on its own context.
const reconcileTimeout = 10 * time.Second

// reconcile resolves a stream that ended without a clean terminal event by
// asking the authoritative run-status endpoint, then finalizes the session.
// The transport's close signal alone cannot distinguish "finished, client
// missed the final frame" from "still running" from "crashed".
func (s *Session) reconcile(gen uint64, runID, transportErr string) {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	status, err := s.backend.RunStatus(ctx, runID)
	final, errText, warning := classifyReconcile(status, err, transportErr)
	s.debug.Notef(runID, "reconciled ambiguous close: backend status %q -> %s", status, final)

	if s.finalize(gen, final, errText) && warning != "" {
		s.warn(warning)
	}
}

// classifyReconcile maps the authoritative status (or the failure to obtain
// it) to a terminal session state. The returned warning, if any, is surfaced
// to the consumer after finalization.
func classifyReconcile(status agentapi.RunStatus, queryErr error, transportErr string) (final State, errText, warning string) {
	if queryErr != nil {
		if errors.Is(queryErr, agentapi.ErrRunNotFound) {
			return StateAgentNotRunning, transportErr, ""
		}
		// Preserve the original transport failure over the secondary query
		// failure; the transport error is what actually ended the session.
		if transportErr == "" {
			transportErr = queryErr.Error()
		}
		return StateError, transportErr, ""
	}

	switch status {
	case agentapi.RunRunning:
		// The run outlived our connection. Resuming silently is not safe, so
		// the session ends in error with a user-facing warning.
		if transportErr == "" {
			transportErr = "stream disconnected while the run is still executing"
		}
		return StateError, transportErr, "the backend reports this run is still executing; it may continue without this client"
	case agentapi.RunCompleted:
		return StateCompleted, "", ""
	default:
		if transportErr == "" {
			transportErr = fmt.Sprintf("run ended with status %q", status)
		}
		return StateError, transportErr, ""
	}
}
