// Package remote talks to a hosted chat endpoint over JSON.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"budgetvoice/internal/assistant"
)

var _ assistant.Assistant = (*Client)(nil)

type Client struct {
	url  string
	http *http.Client
}

func New(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

func (c *Client) Ask(ctx context.Context, req assistant.Request) (assistant.Reply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return assistant.Reply{}, fmt.Errorf("encode assistant request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return assistant.Reply{}, fmt.Errorf("build assistant request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return assistant.Reply{}, fmt.Errorf("call assistant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return assistant.Reply{}, fmt.Errorf("assistant returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var reply assistant.Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return assistant.Reply{}, fmt.Errorf("decode assistant reply: %w", err)
	}
	return reply, nil
}
