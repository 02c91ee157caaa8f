package storage

import "context"

// BlobStore is the narrow blob contract consumed by the lifecycle manager.
// Writes are assumed eventually consistent after Put returns.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (ref string, err error)
	Get(ctx context.Context, ref string) ([]byte, error)
}
