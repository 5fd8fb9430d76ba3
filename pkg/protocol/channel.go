package protocol

import "context"

// SendMessageRequest addresses one outbound message on a tenant channel.
type SendMessageRequest struct {
	ChannelID string `json:"channel_id"`
	To        string `json:"to"`
	Type      string `json:"type,omitempty"`
	Content   string `json:"content"`
	MediaURL  string `json:"media_url,omitempty"`
}

// SendMessageResult identifies the message accepted by the provider.
type SendMessageResult struct {
	MessageID string `json:"message_id"`
}

// InboundMessage is delivered by the provider for received messages.
type InboundMessage struct {
	ChannelID string `json:"channel_id"`
	From      string `json:"from"`
	Content   string `json:"content"`
}

// MessageCallback handles inbound provider events.
type MessageCallback func(ctx context.Context, msg InboundMessage)

// ChannelProvider is the message transport collaborator. Session pairing,
// QR codes and socket reconnection are the provider's concern; the core only
// consumes these operations.
type ChannelProvider interface {
	Connect(ctx context.Context, channelID string, config map[string]any) error
	Disconnect(ctx context.Context, channelID string) error
	SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResult, error)
	OnMessage(callback MessageCallback)
	IsConnected(channelID string) bool
}
