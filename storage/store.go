// Package storage provides the artifact store behind episode metadata
// and video persistence.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no artifact exists at the requested path.
var ErrNotFound = errors.New("artifact not found")

// Store is the contract for binary artifact persistence. Episode
// artifacts live under the episode's storage path, e.g.
// "episodes/<id>/meta.json" and "episodes/<id>/video.mp4".
type Store interface {
	// PutBytes persists data at the given path.
	PutBytes(ctx context.Context, path string, data []byte, contentType string) error
	// GetBytes retrieves the data at path, or ErrNotFound.
	GetBytes(ctx context.Context, path string) ([]byte, error)
	// SignedURL issues a time-limited read URL for the artifact.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}
