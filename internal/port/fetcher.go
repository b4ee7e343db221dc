package port

import (
	"context"

	"ocrbridge/internal/domain"
)

// ImageFetcher downloads a remote image into a temporary local resource.
// The caller owns the returned resource and must Release it.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*domain.ImageResource, error)
}
