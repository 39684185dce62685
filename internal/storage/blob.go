package storage

import (
	"errors"
	"io"
)

var ErrInvalidKey = errors.New("storage: invalid key")

// BlobStore keeps narration audio and other binary artefacts.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Exists(key string) (bool, error)
}
