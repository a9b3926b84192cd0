package cartstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and local development.
type MemoryStore struct {
	mu        sync.RWMutex
	carts     map[string]*Cart
	addresses map[string]*SelectedAddress
}

// NewMemoryStore builds an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts:     map[string]*Cart{},
		addresses: map[string]*SelectedAddress{},
	}
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cart, ok := s.carts[sessionID]; ok {
		return cart.Clone(), nil
	}
	return &Cart{}, nil
}

func (s *MemoryStore) Set(ctx context.Context, sessionID string, cart *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[sessionID] = cart.Clone()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

func (s *MemoryStore) GetSelectedAddress(ctx context.Context, sessionID string) (*SelectedAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if addr, ok := s.addresses[sessionID]; ok {
		copied := *addr
		return &copied, nil
	}
	return nil, nil
}

func (s *MemoryStore) SetSelectedAddress(ctx context.Context, sessionID string, addr *SelectedAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr == nil {
		delete(s.addresses, sessionID)
		return nil
	}
	copied := *addr
	s.addresses[sessionID] = &copied
	return nil
}

func (s *MemoryStore) ClearSelectedAddress(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.addresses, sessionID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
