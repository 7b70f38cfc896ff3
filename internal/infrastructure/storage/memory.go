package storage

import (
	"context"
	"sync"

	"aura-runtime/internal/application/port/output"
)

var _ output.StoragePort = (*MemoryStore)(nil)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	hub  *hub
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte), hub: newHub()}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	s.hub.publish(key, value)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	s.hub.publish(key, nil)
	return nil
}

func (s *MemoryStore) Subscribe(key string) (<-chan output.StorageChange, func()) {
	return s.hub.subscribe(key)
}

func (s *MemoryStore) Close() error {
	s.hub.closeAll()
	return nil
}
