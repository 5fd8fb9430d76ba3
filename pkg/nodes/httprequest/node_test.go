package httprequest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitcrm/conduit/pkg/models"
)

func TestNewHTTPNode_RequiresURL(t *testing.T) {
	_, err := NewHTTPNode("h1", map[string]any{"method": "POST"})
	assert.Error(t, err)
}

func TestHTTPNode_GetParsesJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"score": 42}`))
	}))
	defer server.Close()

	node, err := NewHTTPNode("h1", map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := node.Execute(context.Background(), models.ExecutionContext{})
	require.NoError(t, err)

	assert.Equal(t, 200, result.Data["http_status"])
	body := result.Data["http_body"].(map[string]any)
	assert.Equal(t, float64(42), body["score"])
}

func TestHTTPNode_PostRendersBodyTemplate(t *testing.T) {
	var received string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		received = string(raw)

		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	node, err := NewHTTPNode("h1", map[string]any{
		"url":    server.URL,
		"method": "post",
		"body":   `{"contact": "{{.variables.contact_id}}"}`,
	})
	require.NoError(t, err)

	result, err := node.Execute(context.Background(), models.ExecutionContext{
		Variables: map[string]any{"contact_id": "c1"},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"contact": "c1"}`, received)
	assert.Equal(t, 201, result.Data["http_status"])
}

func TestHTTPNode_NonSuccessStatusFailsNode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	node, err := NewHTTPNode("h1", map[string]any{"url": server.URL})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), models.ExecutionContext{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPNode_NonJSONBodyKeptAsString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	defer server.Close()

	node, err := NewHTTPNode("h1", map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := node.Execute(context.Background(), models.ExecutionContext{})
	require.NoError(t, err)
	assert.Equal(t, "pong", result.Data["http_body"])
}
