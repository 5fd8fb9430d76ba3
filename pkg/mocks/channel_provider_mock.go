package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/conduitcrm/conduit/pkg/protocol"
)

// MockChannelProvider is a mock implementation of protocol.ChannelProvider.
type MockChannelProvider struct {
	mock.Mock
}

func (m *MockChannelProvider) Connect(ctx context.Context, channelID string, config map[string]any) error {
	args := m.Called(ctx, channelID, config)

	return args.Error(0)
}

func (m *MockChannelProvider) Disconnect(ctx context.Context, channelID string) error {
	args := m.Called(ctx, channelID)

	return args.Error(0)
}

func (m *MockChannelProvider) SendMessage(ctx context.Context, req protocol.SendMessageRequest) (*protocol.SendMessageResult, error) {
	args := m.Called(ctx, req)

	result, _ := args.Get(0).(*protocol.SendMessageResult)

	return result, args.Error(1)
}

func (m *MockChannelProvider) OnMessage(callback protocol.MessageCallback) {
	m.Called(callback)
}

func (m *MockChannelProvider) IsConnected(channelID string) bool {
	args := m.Called(channelID)

	return args.Bool(0)
}
