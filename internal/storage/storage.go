// Package storage holds the key-value backends that persist the serialized
// task and reminder collections.
package storage

import (
	"context"
	"errors"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrUnavailable = errors.New("storage unavailable")
)

// Backend is a durable key-value store. Set always overwrites the whole
// entry stored under key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
