package model

import (
	"context"
	"io"
)

// Storage is a blob store addressed by key. Download returns ErrNotFound for
// missing keys. Documents are only ever replaced, never removed.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}
