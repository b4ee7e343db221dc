package port

import "context"

// ObjectStorage abstracts reads from cloud object storage.
type ObjectStorage interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}
