package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ocrbridge/internal/domain"
)

// MockImageFetcher is a mock implementation of port.ImageFetcher.
type MockImageFetcher struct {
	mock.Mock
}

func (m *MockImageFetcher) Fetch(ctx context.Context, url string) (*domain.ImageResource, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImageResource), args.Error(1)
}
