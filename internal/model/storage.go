package model

import (
	"context"
	"io"
)

// Storage keeps raw uploaded files in object storage.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}
