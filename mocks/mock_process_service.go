package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ocrbridge/internal/domain"
)

// MockProcessService is a mock implementation of service.ProcessService.
type MockProcessService struct {
	mock.Mock
}

func (m *MockProcessService) Process(ctx context.Context, imageURL string) (domain.AssistantReply, error) {
	args := m.Called(ctx, imageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.AssistantReply), args.Error(1)
}
