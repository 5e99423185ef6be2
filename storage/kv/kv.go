// Package kv provides the per-profile persistent key-value store backing the
// tracker's client-side state, shared across concurrently running processes.
package kv

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	// Watch delivers the new raw value every time `key` is rewritten, including
	// by other processes sharing the same profile. Delivery is at-most-once per
	// change and carries no ordering guarantee across distinct keys.
	Watch(ctx context.Context, key string) (<-chan []byte, error)
	Close() error
}
