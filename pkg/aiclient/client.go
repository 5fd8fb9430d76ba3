// Package aiclient implements the generation and knowledge retrieval
// contracts against the AI gateway's HTTP API. Model selection, prompt
// safety and vector indexing are the gateway's concern.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/conduitcrm/conduit/pkg/protocol"
)

const defaultTimeout = 30 * time.Second

// Client talks to the AI gateway. It satisfies both protocol.Generator and
// protocol.KnowledgeStore.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) Generate(ctx context.Context, req protocol.GenerateRequest) (*protocol.GenerateResult, error) {
	var result protocol.GenerateResult

	if err := c.post(ctx, "/generate", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) Search(ctx context.Context, tenantID, query string, limit int) ([]protocol.KnowledgeItem, error) {
	payload := map[string]any{
		"tenant_id": tenantID,
		"query":     query,
		"limit":     limit,
	}

	var result struct {
		Items []protocol.KnowledgeItem `json:"items"`
	}

	if err := c.post(ctx, "/knowledge/search", payload, &result); err != nil {
		return nil, err
	}

	return result.Items, nil
}

func (c *Client) post(ctx context.Context, path string, payload, target any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ai gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))

		return fmt.Errorf("ai gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode ai gateway response: %w", err)
	}

	return nil
}
