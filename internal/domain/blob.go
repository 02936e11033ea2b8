package domain

import (
	"context"
	"io"
	"time"
)

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// BlobReader checks object storage for existing objects.
type BlobReader interface {
	Exists(ctx context.Context, path string) (bool, error)
}

// Archiver moves old reprice history from the database to cold storage and
// returns the number of records archived.
type Archiver interface {
	ArchiveHistory(ctx context.Context, before time.Time) (int64, error)
}
