package masterdata

import (
	"context"
	"fmt"
	"sync"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// MemoryStore is an in-memory Reader used by the seeder and by package tests
// across the engine.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[int64]Product
	partners map[int64]Partner
	taxes    map[int64]Tax
	accounts map[int64]Account
	nextID   int64
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[int64]Product),
		partners: make(map[int64]Partner),
		taxes:    make(map[int64]Tax),
		accounts: make(map[int64]Account),
	}
}

func (s *MemoryStore) PutProduct(p Product) Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		s.nextID++
		p.ID = s.nextID
	}
	s.products[p.ID] = p
	return p
}

func (s *MemoryStore) PutPartner(p Partner) Partner {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		s.nextID++
		p.ID = s.nextID
	}
	s.partners[p.ID] = p
	return p
}

func (s *MemoryStore) PutTax(t Tax) Tax {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		s.nextID++
		t.ID = s.nextID
	}
	s.taxes[t.ID] = t
	return t
}

func (s *MemoryStore) PutAccount(a Account) Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		s.nextID++
		a.ID = s.nextID
	}
	s.accounts[a.ID] = a
	return a
}

func (s *MemoryStore) GetProduct(_ context.Context, id int64) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return p, nil
}

func (s *MemoryStore) GetPartner(_ context.Context, id int64) (Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partners[id]
	if !ok {
		return Partner{}, fmt.Errorf("%w: partner %d", shared.ErrNotFound, id)
	}
	return p, nil
}

func (s *MemoryStore) GetTax(_ context.Context, id int64) (Tax, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.taxes[id]
	if !ok {
		return Tax{}, fmt.Errorf("%w: tax %d", shared.ErrNotFound, id)
	}
	return t, nil
}

func (s *MemoryStore) GetAccount(_ context.Context, id int64) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return Account{}, fmt.Errorf("%w: account %d", shared.ErrNotFound, id)
	}
	return a, nil
}

var _ Reader = (*MemoryStore)(nil)
