package agentapi

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// StreamCallbacks receive transport-level events from a live run stream.
// OnMessage gets each non-empty SSE line exactly as the backend sent it
// (including the "data: " prefix); payload interpretation belongs to the
// stream package so live and replayed payloads share one parser. OnError
// fires at most once, on a transport failure. OnClose fires exactly once
// when the stream ends for any reason, after any OnError.
type StreamCallbacks struct {
	OnMessage func(raw string)
	OnError   func(err error)
	OnClose   func()
}

// StreamRun opens the live SSE event stream for a run. It returns a cancel
// function that tears the connection down; cancel is idempotent and safe to
// call from any goroutine. Callbacks are invoked from a single reader
// goroutine, in arrival order.
func (c *Client) StreamRun(ctx context.Context, runID string, cb StreamCallbacks) (func(), error) {
	streamCtx, cancel := context.WithCancel(ctx)

	req, err := c.newRequest(streamCtx, http.MethodGet, fmt.Sprintf("/agent-runs/%s/stream", runID), nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	var once sync.Once
	disposer := func() { once.Do(cancel) }

	go func() {
		defer cancel()
		err := c.readStream(req, cb)
		if err != nil && streamCtx.Err() == nil && cb.OnError != nil {
			cb.OnError(err)
		}
		if cb.OnClose != nil {
			cb.OnClose()
		}
	}()

	return disposer, nil
}

// readStream performs the request and pumps SSE lines to the callbacks.
// A nil return means the server ended the stream cleanly.
func (c *Client) readStream(req *http.Request, cb StreamCallbacks) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("stream request failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	scanner := bufio.NewScanner(resp.Body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		// SSE keep-alive comments and event separators carry no payload.
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if cb.OnMessage != nil {
			cb.OnMessage(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read: %w", err)
	}
	return nil
}
