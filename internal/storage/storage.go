package storage

import (
	"context"
	"io"
)

// MaxUploadBytes bounds any single audio upload.
const MaxUploadBytes = 10 << 20

// Uploader is the blob-store boundary. Objects are immutable once a
// session record references their URL.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (url string, err error)
}
