// Package channelclient implements the channel provider contract against the
// external message gateway's HTTP API. Session pairing and socket management
// live in the gateway; this client only drives its REST surface.
package channelclient

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

// Client talks to the message gateway.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	callback   protocol.MessageCallback
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) Connect(ctx context.Context, channelID string, config map[string]any) error {
	return c.post(ctx, fmt.Sprintf("/channels/%s/connect", channelID), config, nil)
}

func (c *Client) Disconnect(ctx context.Context, channelID string) error {
	return c.post(ctx, fmt.Sprintf("/channels/%s/disconnect", channelID), nil, nil)
}

func (c *Client) SendMessage(ctx context.Context, req protocol.SendMessageRequest) (*protocol.SendMessageResult, error) {
	var result protocol.SendMessageResult

	err := c.post(ctx, fmt.Sprintf("/channels/%s/messages", req.ChannelID), req, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// OnMessage registers the inbound callback. The gateway delivers inbound
// messages to our webhook endpoint, which feeds them through here.
func (c *Client) OnMessage(callback protocol.MessageCallback) {
	c.callback = callback
}

// HandleInbound forwards a gateway webhook payload to the registered
// callback.
func (c *Client) HandleInbound(ctx context.Context, msg protocol.InboundMessage) {
	if c.callback != nil {
		c.callback(ctx, msg)
	}
}

func (c *Client) IsConnected(channelID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var status struct {
		Connected bool `json:"connected"`
	}

	if err := c.get(ctx, fmt.Sprintf("/channels/%s/status", channelID), &status); err != nil {
		return false
	}

	return status.Connected
}

func (c *Client) post(ctx context.Context, path string, payload, target any) error {
	var body io.Reader

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	return c.do(req, target)
}

func (c *Client) get(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target any) error {
	req.Header.Set("Content-Type", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))

		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(data))
	}

	if target == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return nil
}
