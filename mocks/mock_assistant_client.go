package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ocrbridge/internal/domain"
)

// MockAssistantClient is a mock implementation of port.AssistantClient.
type MockAssistantClient struct {
	mock.Mock
}

func (m *MockAssistantClient) Submit(ctx context.Context, text string) (domain.RunHandle, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(domain.RunHandle), args.Error(1)
}

func (m *MockAssistantClient) RunStatus(ctx context.Context, handle domain.RunHandle) (domain.RunStatus, error) {
	args := m.Called(ctx, handle)
	return args.Get(0).(domain.RunStatus), args.Error(1)
}

func (m *MockAssistantClient) ListMessages(ctx context.Context, threadID string) ([]domain.ThreadMessage, error) {
	args := m.Called(ctx, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ThreadMessage), args.Error(1)
}
