package token

import (
	"context"
	"sync"
)

// MemoryStore keeps the credential in process memory. It backs tests and the
// single-instance deployment where losing the session on restart is fine.
type MemoryStore struct {
	mu         sync.RWMutex
	credential string
	role       string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	storeOps.WithLabelValues("get").Inc()
	return s.credential, nil
}

func (s *MemoryStore) Set(_ context.Context, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	storeOps.WithLabelValues("set").Inc()
	s.credential = credential
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	storeOps.WithLabelValues("clear").Inc()
	s.credential = ""
	s.role = ""
	return nil
}

func (s *MemoryStore) Role(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role, nil
}

func (s *MemoryStore) SetRole(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = name
	return nil
}
