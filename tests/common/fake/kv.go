//go:build unit

package fake

import (
	"context"
	"strings"
	"sync"

	"ticketgate/internal/infra/kv"
	"ticketgate/internal/pkg/errs"
)

// KVStore wraps a real kv.Store and lets tests break Save for selected
// keys, simulating a full disk or a dying flash chip.
type KVStore struct {
	mu     sync.Mutex
	inner  kv.Store
	broken string
}

func NewKVStore(inner kv.Store) *KVStore {
	return &KVStore{inner: inner}
}

// Break makes Save fail for keys containing substr; Break("") repairs.
func (s *KVStore) Break(substr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken = substr
}

func (s *KVStore) Load(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Load(ctx, key)
}

func (s *KVStore) Save(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	broken := s.broken
	s.mu.Unlock()
	if broken != "" && strings.Contains(key, broken) {
		return errs.New("no space left on device")
	}
	return s.inner.Save(ctx, key, value)
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
