package catalog

import (
	"context"
	"slices"
	"sync"
)

// MemStore keeps products in process memory. One lock guards the map and
// the insertion order together.
type MemStore struct {
	mu    sync.RWMutex
	m     map[string]Product
	order []string
	newID IDFunc
}

func NewMemStore(newID IDFunc) *MemStore {
	return &MemStore{m: map[string]Product{}, newID: newID}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) List(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.m[id].clone())
	}
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p.clone(), nil
}

func (s *MemStore) Create(ctx context.Context, in ProductInput) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for range maxIDAttempts {
		id := s.newID()
		if _, taken := s.m[id]; taken {
			continue
		}
		p := in.product(id)
		s.m[id] = p
		s.order = append(s.order, id)
		return p.clone(), nil
	}
	return Product{}, errIDExhausted
}

func (s *MemStore) Update(ctx context.Context, id string, in ProductInput) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[id]; !ok {
		return Product{}, ErrNotFound
	}
	p := in.product(id)
	s.m[id] = p
	return p.clone(), nil
}

func (s *MemStore) Delete(ctx context.Context, id string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.m[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	delete(s.m, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return p, nil
}
