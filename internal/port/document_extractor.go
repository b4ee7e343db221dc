package port

import "context"

// DocumentExtractor turns a local image into its newline-joined text lines.
type DocumentExtractor interface {
	Extract(ctx context.Context, imagePath string) (string, error)
}
