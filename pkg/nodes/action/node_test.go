package action

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/conduitcrm/conduit/pkg/mocks"
	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/protocol"
)

func TestNewActionNode_Validation(t *testing.T) {
	_, err := NewActionNode("a1", map[string]any{}, nil)
	assert.Error(t, err)

	_, err = NewActionNode("a1", map[string]any{"action": "teleport"}, nil)
	assert.Error(t, err)

	// send_message needs the provider collaborator.
	_, err = NewActionNode("a1", map[string]any{"action": KindSendMessage}, nil)
	assert.Error(t, err)

	_, err = NewActionNode("a1", map[string]any{"action": KindLog}, nil)
	assert.NoError(t, err)
}

func TestActionNode_SendMessageRendersTemplates(t *testing.T) {
	provider := &mocks.MockChannelProvider{}
	provider.On("SendMessage", mock.Anything, protocol.SendMessageRequest{
		ChannelID: "chan-1",
		To:        "+5511999990000",
		Content:   "Your answer: we open at 9am",
	}).Return(&protocol.SendMessageResult{MessageID: "msg-1"}, nil)

	node, err := NewActionNode("a1", map[string]any{
		"action":     KindSendMessage,
		"channel_id": "chan-1",
		"to":         "{{.variables.phone}}",
		"content":    "Your answer: {{.variables.answer}}",
	}, provider)
	require.NoError(t, err)

	result, err := node.Execute(context.Background(), models.ExecutionContext{
		Variables: map[string]any{
			"phone":  "+5511999990000",
			"answer": "we open at 9am",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "msg-1", result.Data["message_id"])
	assert.Equal(t, "+5511999990000", result.Data["message_to"])
	provider.AssertExpectations(t)
}

func TestActionNode_SendMessageProviderFailure(t *testing.T) {
	provider := &mocks.MockChannelProvider{}
	provider.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("channel disconnected"))

	node, err := NewActionNode("a1", map[string]any{
		"action":     KindSendMessage,
		"channel_id": "chan-1",
		"to":         "+5511999990000",
		"content":    "hello",
	}, provider)
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), models.ExecutionContext{})
	assert.Error(t, err)
}

func TestActionNode_SetVariables(t *testing.T) {
	node, err := NewActionNode("a1", map[string]any{
		"action": KindSetVariables,
		"variables": map[string]any{
			"stage":    "qualified",
			"greeting": "hi {{.variables.name}}",
			"score":    80,
		},
	}, nil)
	require.NoError(t, err)

	result, err := node.Execute(context.Background(), models.ExecutionContext{
		Variables: map[string]any{"name": "Ana"},
	})
	require.NoError(t, err)

	// String values are rendered; everything else passes through untouched.
	assert.Equal(t, "qualified", result.Data["stage"])
	assert.Equal(t, "hi Ana", result.Data["greeting"])
	assert.Equal(t, 80, result.Data["score"])
}

func TestActionNode_Log(t *testing.T) {
	node, err := NewActionNode("a1", map[string]any{
		"action":  KindLog,
		"message": "run reached {{.variables.stage}}",
	}, nil)
	require.NoError(t, err)

	result, err := node.Execute(context.Background(), models.ExecutionContext{
		Variables: map[string]any{"stage": "notify"},
	})
	require.NoError(t, err)
	assert.Equal(t, "run reached notify", result.Data["logged"])
}
