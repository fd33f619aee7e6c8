package storage

import (
	"context"
	"errors"
)

var (
	ErrObjectExists = errors.New("object already exists")
	ErrEmptyObject  = errors.New("object body is empty")
)

// ObjectStorage is the object store used for user avatars.
type ObjectStorage interface {
	// Upload writes body under path and returns the stored path. Without
	// overwrite an existing object is left untouched and ErrObjectExists
	// is returned.
	Upload(ctx context.Context, path string, body []byte, contentType string, overwrite bool) (string, error)

	// PublicURL is the unauthenticated URL of the object at path.
	PublicURL(path string) string

	Delete(ctx context.Context, path string) error
}
