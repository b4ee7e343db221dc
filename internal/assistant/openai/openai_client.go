package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ocrbridge/internal/config"
	"ocrbridge/internal/domain"
)

const (
	baseURL   = "https://api.openai.com/v1"
	betaValue = "assistants=v2"
)

// APIError is a non-2xx response from the Assistants API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai API error (status %d): %s", e.StatusCode, e.Body)
}

// Client implements port.AssistantClient using the OpenAI Assistants API.
type Client struct {
	apiKey      string
	assistantID string
	baseURL     string
	client      *http.Client
	log         zerolog.Logger
}

// NewClient creates an Assistants API client from config.
func NewClient(cfg *config.AssistantConfig, log zerolog.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = baseURL
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:      cfg.APIKey,
		assistantID: cfg.AssistantID,
		baseURL:     base,
		client:      &http.Client{Timeout: timeout},
		log:         log.With().Str("component", "assistant").Logger(),
	}
}

type objectID struct {
	ID string `json:"id"`
}

type runObject struct {
	ID       string           `json:"id"`
	ThreadID string           `json:"thread_id"`
	Status   domain.RunStatus `json:"status"`
}

// Submit creates one thread, posts text as one user message and starts one run.
func (c *Client) Submit(ctx context.Context, text string) (domain.RunHandle, error) {
	var thread objectID
	if err := c.do(ctx, http.MethodPost, "/threads", map[string]interface{}{}, &thread); err != nil {
		return domain.RunHandle{}, fmt.Errorf("%w: creating thread: %v", domain.ErrAssistantSubmitFailed, err)
	}

	threadPath := "/threads/" + url.PathEscape(thread.ID)
	msgReq := map[string]interface{}{
		"role":    domain.RoleUser,
		"content": text,
	}
	if err := c.do(ctx, http.MethodPost, threadPath+"/messages", msgReq, nil); err != nil {
		return domain.RunHandle{}, fmt.Errorf("%w: creating message: %v", domain.ErrAssistantSubmitFailed, err)
	}

	var run runObject
	runReq := map[string]interface{}{"assistant_id": c.assistantID}
	if err := c.do(ctx, http.MethodPost, threadPath+"/runs", runReq, &run); err != nil {
		return domain.RunHandle{}, fmt.Errorf("%w: creating run: %v", domain.ErrAssistantSubmitFailed, err)
	}

	c.log.Debug().Str("thread_id", thread.ID).Str("run_id", run.ID).Msg("run started")
	return domain.RunHandle{ThreadID: thread.ID, RunID: run.ID}, nil
}

// RunStatus retrieves the current status of a run.
func (c *Client) RunStatus(ctx context.Context, handle domain.RunHandle) (domain.RunStatus, error) {
	var run runObject
	path := fmt.Sprintf("/threads/%s/runs/%s", url.PathEscape(handle.ThreadID), url.PathEscape(handle.RunID))
	if err := c.do(ctx, http.MethodGet, path, nil, &run); err != nil {
		return "", fmt.Errorf("retrieving run: %w", err)
	}
	return run.Status, nil
}

// ListMessages returns the messages of a thread in the order the API lists them
// (newest first).
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]domain.ThreadMessage, error) {
	var list struct {
		Data []domain.ThreadMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(threadID)+"/messages", nil, &list); err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return list.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", betaValue)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling openai API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 500)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshaling response: %w", err)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
