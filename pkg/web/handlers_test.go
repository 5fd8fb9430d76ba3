package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/conduitcrm/conduit/pkg/dueindex"
	"github.com/conduitcrm/conduit/pkg/mocks"
	"github.com/conduitcrm/conduit/pkg/persistence/file"
	"github.com/conduitcrm/conduit/pkg/registry"
	"github.com/conduitcrm/conduit/pkg/services"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.NewRegistry(logger)
	reg.RegisterDefaults(registry.Dependencies{
		Evaluator: &mocks.MockObjectiveEvaluator{},
		Provider:  &mocks.MockChannelProvider{},
	})

	eventBus := &mocks.MockEventBus{}
	eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	index := dueindex.NewMemoryIndex()

	handlers := NewAPIHandlers(
		services.NewWorkflow(store, reg, eventBus),
		services.NewCampaign(store, index, eventBus),
		services.NewReminder(store, index),
		validator.New(),
	)

	app := fiber.New()
	handlers.Register(app)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, tenant string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if tenant != "" {
		req.Header.Set(TenantHeader, tenant)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	decoded := make(map[string]any)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}

	return resp, decoded
}

func workflowPayload() map[string]any {
	return map[string]any{
		"name": "lead follow-up",
		"nodes": []map[string]any{
			{"id": "start", "type": "trigger"},
			{"id": "notify", "type": "action", "config": map[string]any{
				"action":     "send_message",
				"channel_id": "chan-1",
				"to":         "+5511999990000",
				"content":    "hello",
			}},
		},
		"edges": []map[string]any{
			{"source": "start", "target": "notify"},
		},
	}
}

func TestCreateWorkflow(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/", workflowPayload(), "tenant-1")

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "draft", body["status"])
	assert.Equal(t, "tenant-1", body["tenant_id"])
	assert.NotEmpty(t, body["id"])
}

func TestCreateWorkflow_RequiresTenantHeader(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/", workflowPayload(), "")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateWorkflow_RejectsShortName(t *testing.T) {
	app := newTestApp(t)

	payload := workflowPayload()
	payload["name"] = "ab"

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/", payload, "tenant-1")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetWorkflow_NotFound(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/does-not-exist", nil, "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["type"])
}

func TestPublishAndTriggerWorkflow(t *testing.T) {
	app := newTestApp(t)

	_, created := doJSON(t, app, http.MethodPost, "/workflows/", workflowPayload(), "tenant-1")
	id := created["id"].(string)

	resp, published := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/publish", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "published", published["status"])

	resp, run := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/trigger",
		map[string]any{"trigger_data": map[string]any{"contact_id": "c1"}}, "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "running", run["status"])
	assert.Equal(t, id, run["workflow_id"])
}

func TestTriggerDraftWorkflowConflicts(t *testing.T) {
	app := newTestApp(t)

	_, created := doJSON(t, app, http.MethodPost, "/workflows/", workflowPayload(), "tenant-1")
	id := created["id"].(string)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/trigger", nil, "")

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "conflict", body["type"])
}

func TestPublishInvalidGraphIsUnprocessable(t *testing.T) {
	app := newTestApp(t)

	payload := workflowPayload()
	payload["edges"] = []map[string]any{} // notify unreachable

	_, created := doJSON(t, app, http.MethodPost, "/workflows/", payload, "tenant-1")
	id := created["id"].(string)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/publish", nil, "")

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_graph", body["type"])
}

func TestUpdatePublishedWorkflowConflicts(t *testing.T) {
	app := newTestApp(t)

	_, created := doJSON(t, app, http.MethodPost, "/workflows/", workflowPayload(), "tenant-1")
	id := created["id"].(string)

	doJSON(t, app, http.MethodPost, "/workflows/"+id+"/publish", nil, "")

	resp, _ := doJSON(t, app, http.MethodPatch, "/workflows/"+id,
		map[string]any{"name": "renamed workflow"}, "")

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestListWorkflowsIsTenantScoped(t *testing.T) {
	app := newTestApp(t)

	doJSON(t, app, http.MethodPost, "/workflows/", workflowPayload(), "tenant-1")
	doJSON(t, app, http.MethodPost, "/workflows/", workflowPayload(), "tenant-2")

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/", nil, "tenant-1")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	workflows := body["workflows"].([]any)
	assert.Len(t, workflows, 1)
}

func campaignPayload() map[string]any {
	return map[string]any{
		"name":       "spring promo",
		"channel_id": "chan-1",
		"recipients": []map[string]any{
			{"contact_id": "c1", "phone": "+5511999990001", "data": map[string]any{"name": "Ana"}},
		},
		"messages": []map[string]any{
			{"type": "text", "content": "Hi {{.name}}!"},
		},
	}
}

func TestScheduleCampaignLifecycle(t *testing.T) {
	app := newTestApp(t)

	resp, created := doJSON(t, app, http.MethodPost, "/campaigns/", campaignPayload(), "tenant-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "scheduled", created["status"])

	id := created["id"].(string)

	resp, paused := doJSON(t, app, http.MethodPost, "/campaigns/"+id+"/pause", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "paused", paused["status"])

	resp, resumed := doJSON(t, app, http.MethodPost, "/campaigns/"+id+"/resume", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "scheduled", resumed["status"])

	resp, cancelled := doJSON(t, app, http.MethodPost, "/campaigns/"+id+"/cancel", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", cancelled["status"])

	// Terminal campaigns reject further transitions.
	resp, _ = doJSON(t, app, http.MethodPost, "/campaigns/"+id+"/resume", nil, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestScheduleCampaign_RejectsEmptyRecipients(t *testing.T) {
	app := newTestApp(t)

	payload := campaignPayload()
	payload["recipients"] = []map[string]any{}

	resp, _ := doJSON(t, app, http.MethodPost, "/campaigns/", payload, "tenant-1")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScheduleReminderLifecycle(t *testing.T) {
	app := newTestApp(t)

	payload := map[string]any{
		"kind":       "appointment",
		"phone":      "+5511999990001",
		"channel_id": "chan-1",
		"content":    "See you tomorrow at 10am.",
	}

	resp, created := doJSON(t, app, http.MethodPost, "/reminders/", payload, "tenant-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "scheduled", created["status"])

	id := created["id"].(string)

	resp, fetched := doJSON(t, app, http.MethodGet, "/reminders/"+id, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "appointment", fetched["kind"])

	resp, cancelled := doJSON(t, app, http.MethodPost, "/reminders/"+id+"/cancel", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", cancelled["status"])
}

func TestScheduleReminder_RejectsUnknownKind(t *testing.T) {
	app := newTestApp(t)

	payload := map[string]any{
		"kind":       "birthday",
		"phone":      "+5511999990001",
		"channel_id": "chan-1",
		"content":    "hi",
	}

	resp, _ := doJSON(t, app, http.MethodPost, "/reminders/", payload, "tenant-1")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}
