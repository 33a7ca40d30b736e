// Package kv provides the durable key-value port backing the ticket cache
// and the offline queue. Hosts pick a backend: JSON files on disk for
// embedded/kiosk devices, or a local Redis for web deployments.
package kv

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("kv: key not found")

type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
