package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/conduitcrm/conduit/pkg/protocol"
)

// MockGenerator is a mock implementation of protocol.Generator.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req protocol.GenerateRequest) (*protocol.GenerateResult, error) {
	args := m.Called(ctx, req)

	result, _ := args.Get(0).(*protocol.GenerateResult)

	return result, args.Error(1)
}

// MockKnowledgeStore is a mock implementation of protocol.KnowledgeStore.
type MockKnowledgeStore struct {
	mock.Mock
}

func (m *MockKnowledgeStore) Search(ctx context.Context, tenantID, query string, limit int) ([]protocol.KnowledgeItem, error) {
	args := m.Called(ctx, tenantID, query, limit)

	items, _ := args.Get(0).([]protocol.KnowledgeItem)

	return items, args.Error(1)
}

// MockObjectiveEvaluator is a mock implementation of
// protocol.ObjectiveEvaluator.
type MockObjectiveEvaluator struct {
	mock.Mock
}

func (m *MockObjectiveEvaluator) Evaluate(ctx context.Context, req protocol.EvaluateRequest) (*protocol.EvaluateResult, error) {
	args := m.Called(ctx, req)

	result, _ := args.Get(0).(*protocol.EvaluateResult)

	return result, args.Error(1)
}
