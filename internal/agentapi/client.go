package agentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrRunNotFound is returned when the backend reports that an agent run does
// not exist. Callers use it to distinguish "this run is gone" from transport
// or server failures.
var ErrRunNotFound = errors.New("agent run not found")

// requestTimeout bounds non-streaming API calls. Streaming requests are
// governed by their context instead.
const requestTimeout = 30 * time.Second

// Client talks to the agent execution backend over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a backend client. baseURL is the API root, e.g.
// "https://agents.example.com/api". apiKey may be empty for unauthenticated
// deployments.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		// No client-level timeout: the same client serves SSE requests that
		// stay open for the lifetime of a run. Non-streaming calls wrap their
		// context with requestTimeout instead.
		httpClient: &http.Client{},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrRunNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("backend error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StartRun asks the backend to begin a new agent run on the given thread and
// returns the run identifier.
func (c *Client) StartRun(ctx context.Context, threadID string) (string, error) {
	var resp struct {
		RunID string `json:"agent_run_id"`
	}
	path := fmt.Sprintf("/threads/%s/agent/start", threadID)
	if err := c.doJSON(ctx, http.MethodPost, path, struct{}{}, &resp); err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	if resp.RunID == "" {
		return "", fmt.Errorf("start run: backend returned no run id")
	}
	return resp.RunID, nil
}

// StopRun asks the backend to halt a run. The run may already have finished;
// that is not an error.
func (c *Client) StopRun(ctx context.Context, runID string) error {
	path := fmt.Sprintf("/agent-runs/%s/stop", runID)
	if err := c.doJSON(ctx, http.MethodPost, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("stop run: %w", err)
	}
	return nil
}

// RunStatus fetches the authoritative status of a run. A missing run yields
// ErrRunNotFound.
func (c *Client) RunStatus(ctx context.Context, runID string) (RunStatus, error) {
	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	path := fmt.Sprintf("/agent-runs/%s", runID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return RunUnknown, err
	}
	switch RunStatus(resp.Status) {
	case RunRunning, RunCompleted, RunStopped, RunFailed, RunError:
		return RunStatus(resp.Status), nil
	}
	return RunUnknown, nil
}

// Messages fetches the full ordered message history of a thread.
func (c *Client) Messages(ctx context.Context, threadID string) ([]Message, error) {
	var resp struct {
		Messages []Message `json:"messages"`
	}
	path := fmt.Sprintf("/threads/%s/messages", threadID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	return resp.Messages, nil
}
