// Package httprequest provides the outbound HTTP call node for workflow
// graphs.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/template"
)

// DefaultTimeout bounds every request so a stalled endpoint cannot stall an
// entire run.
const DefaultTimeout = 30 * time.Second

// HTTPNode performs one HTTP request and merges the response into the run
// context.
type HTTPNode struct {
	id     string
	config Config
	client *http.Client
}

// Config defines the configuration for HTTP nodes.
type Config struct {
	URL            string            `json:"url"`
	Method         string            `json:"method"`
	Headers        map[string]string `json:"headers"`
	Body           string            `json:"body,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds"`
}

// NewHTTPNode creates a new HTTP node.
func NewHTTPNode(id string, config map[string]any) (*HTTPNode, error) {
	cfg := Config{
		Method:  http.MethodGet,
		Headers: make(map[string]string),
	}

	if url, ok := config["url"].(string); ok {
		cfg.URL = url
	} else {
		return nil, errors.New("missing required field 'url'")
	}

	if method, ok := config["method"].(string); ok {
		cfg.Method = strings.ToUpper(method)
	}

	if headers, ok := config["headers"].(map[string]any); ok {
		for k, v := range headers {
			if strVal, ok := v.(string); ok {
				cfg.Headers[k] = strVal
			}
		}
	}

	if body, ok := config["body"].(string); ok {
		cfg.Body = body
	}

	if timeout, ok := config["timeout_seconds"].(float64); ok {
		cfg.TimeoutSeconds = int(timeout)
	} else if timeout, ok := config["timeout_seconds"].(int); ok {
		cfg.TimeoutSeconds = timeout
	}

	timeout := DefaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return &HTTPNode{
		id:     id,
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// ID returns the node ID.
func (n *HTTPNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *HTTPNode) Type() models.NodeType {
	return models.NodeTypeHTTP
}

// Execute performs the HTTP request. URL and body support templating against
// the run context. Non-2xx responses are node failures and fail the run.
func (n *HTTPNode) Execute(ctx context.Context, ec models.ExecutionContext) (*models.NodeResult, error) {
	url, err := template.RenderWithContext(n.config.URL, &ec)
	if err != nil {
		return nil, fmt.Errorf("failed to render URL template: %w", err)
	}

	body, err := template.RenderWithContext(n.config.Body, &ec)
	if err != nil {
		return nil, fmt.Errorf("failed to render body template: %w", err)
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, n.config.Method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for k, v := range n.config.Headers {
		req.Header.Set(k, v)
	}

	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		parsed = string(raw)
	}

	return &models.NodeResult{
		Data: map[string]any{
			"http_status": resp.StatusCode,
			"http_body":   parsed,
		},
	}, nil
}
