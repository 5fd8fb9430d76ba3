// Package action provides the side-effect node for workflow graphs. The
// configured kind selects the behavior: sending a message through the
// channel provider, setting context variables, or structured logging.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/protocol"
	"github.com/conduitcrm/conduit/pkg/template"
)

// Action kinds.
const (
	KindSendMessage  = "send_message"
	KindSetVariables = "set_variables"
	KindLog          = "log"
)

// ActionNode executes one configured side effect.
type ActionNode struct {
	id       string
	kind     string
	config   map[string]any
	provider protocol.ChannelProvider
	logger   *slog.Logger
}

// NewActionNode creates a new action node.
func NewActionNode(id string, config map[string]any, provider protocol.ChannelProvider) (*ActionNode, error) {
	kind, ok := config["action"].(string)
	if !ok || kind == "" {
		return nil, errors.New("missing required field 'action'")
	}

	switch kind {
	case KindSendMessage, KindSetVariables, KindLog:
	default:
		return nil, fmt.Errorf("unsupported action '%s'", kind)
	}

	if kind == KindSendMessage && provider == nil {
		return nil, errors.New("send_message action requires a channel provider")
	}

	return &ActionNode{
		id:       id,
		kind:     kind,
		config:   config,
		provider: provider,
		logger:   slog.With("module", "action_node", "node_id", id),
	}, nil
}

// ID returns the node ID.
func (n *ActionNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *ActionNode) Type() models.NodeType {
	return models.NodeTypeAction
}

// Execute runs the configured action.
func (n *ActionNode) Execute(ctx context.Context, ec models.ExecutionContext) (*models.NodeResult, error) {
	switch n.kind {
	case KindSendMessage:
		return n.sendMessage(ctx, ec)
	case KindSetVariables:
		return n.setVariables(ec)
	default:
		return n.logMessage(ctx, ec)
	}
}

func (n *ActionNode) sendMessage(ctx context.Context, ec models.ExecutionContext) (*models.NodeResult, error) {
	channelID, _ := n.config["channel_id"].(string)
	if channelID == "" {
		return nil, errors.New("send_message action requires 'channel_id'")
	}

	to, _ := n.config["to"].(string)

	content, _ := n.config["content"].(string)
	if content == "" {
		return nil, errors.New("send_message action requires 'content'")
	}

	renderedTo, err := template.RenderWithContext(to, &ec)
	if err != nil {
		return nil, fmt.Errorf("failed to render recipient: %w", err)
	}

	renderedContent, err := template.RenderWithContext(content, &ec)
	if err != nil {
		return nil, fmt.Errorf("failed to render content: %w", err)
	}

	result, err := n.provider.SendMessage(ctx, protocol.SendMessageRequest{
		ChannelID: channelID,
		To:        renderedTo,
		Content:   renderedContent,
	})
	if err != nil {
		return nil, fmt.Errorf("send failed: %w", err)
	}

	return &models.NodeResult{
		Data: map[string]any{
			"message_id": result.MessageID,
			"message_to": renderedTo,
		},
	}, nil
}

func (n *ActionNode) setVariables(ec models.ExecutionContext) (*models.NodeResult, error) {
	variables, ok := n.config["variables"].(map[string]any)
	if !ok {
		return nil, errors.New("set_variables action requires a 'variables' object")
	}

	data := make(map[string]any, len(variables))

	for k, v := range variables {
		if str, ok := v.(string); ok {
			rendered, err := template.RenderWithContext(str, &ec)
			if err != nil {
				return nil, fmt.Errorf("failed to render variable '%s': %w", k, err)
			}

			data[k] = rendered

			continue
		}

		data[k] = v
	}

	return &models.NodeResult{Data: data}, nil
}

func (n *ActionNode) logMessage(ctx context.Context, ec models.ExecutionContext) (*models.NodeResult, error) {
	message, _ := n.config["message"].(string)

	rendered, err := template.RenderWithContext(message, &ec)
	if err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}

	n.logger.InfoContext(ctx, rendered, "run_id", ec.RunID)

	return &models.NodeResult{
		Data: map[string]any{"logged": rendered},
	}, nil
}
