package storage

import (
	"context"
	"io"
	"time"

	"github.com/galgamex/fuxiaochen/internal/model"
)

// ObjectMeta carries the header fields of a stored object.
type ObjectMeta struct {
	ContentType  string
	Size         int64
	LastModified time.Time
	ETag         string
}

// Storage wraps an object-storage bucket. Keys are path-like strings; the
// segment layout "<folder>/<userID>/<file>" encodes ownership.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string, metadata map[string]string) (string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, *ObjectMeta, error)
	List(ctx context.Context, prefix string, maxKeys int32) ([]model.FileObject, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}
