// Package store holds the task snapshot: one opaque blob under one fixed key.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no snapshot has been saved yet.
var ErrNotFound = errors.New("snapshot not found")

// Store loads and saves the serialized task collection.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}
