package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache is the subset of a key/value cache CachedStore needs.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// CachedStore puts a read-through cache in front of another Store.
// Cache failures are logged and never fail the call.
type CachedStore struct {
	next  Store
	cache Cache
	log   *zap.Logger
	group singleflight.Group

	mu    sync.Mutex
	fills map[string]*fillState
}

// fillState tracks the cache fills in flight for one id. gen moves on every
// committed write, so a fill that read before the write can tell its copy is stale.
type fillState struct {
	gen     uint64
	readers int
}

const fillTimeout = 5 * time.Second

func NewCachedStore(next Store, cache Cache, log *zap.Logger) *CachedStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedStore{
		next:  next,
		cache: cache,
		log:   log,
		fills: make(map[string]*fillState),
	}
}

func cacheKey(id string) string { return "product:" + id }

func (s *CachedStore) Ping(ctx context.Context) error {
	if err := s.next.Ping(ctx); err != nil {
		return err
	}
	return s.cache.Ping(ctx)
}

func (s *CachedStore) List(ctx context.Context) ([]Product, error) {
	return s.next.List(ctx)
}

func (s *CachedStore) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	hit, err := s.cache.Get(ctx, cacheKey(id), &p)
	if err != nil {
		s.log.Warn("cache get failed", zap.Error(err), zap.String("id", id))
	}
	if hit {
		return p, nil
	}

	// The shared fetch must outlive any single caller.
	fillCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(id, func() (any, error) {
		ctx, cancel := context.WithTimeout(fillCtx, fillTimeout)
		defer cancel()
		return s.fill(ctx, id)
	})

	select {
	case <-ctx.Done():
		return Product{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Product{}, res.Err
		}
		return res.Val.(Product).clone(), nil
	}
}

// fill loads id from the backing store and caches it unless a write to id
// committed while the load was in flight.
func (s *CachedStore) fill(ctx context.Context, id string) (Product, error) {
	s.mu.Lock()
	st := s.fills[id]
	if st == nil {
		st = &fillState{}
		s.fills[id] = st
	}
	st.readers++
	gen := st.gen
	s.mu.Unlock()

	p, err := s.next.Get(ctx, id)
	if err == nil {
		s.put(ctx, p)
	}

	s.mu.Lock()
	stale := st.gen != gen
	st.readers--
	if st.readers == 0 {
		delete(s.fills, id)
	}
	s.mu.Unlock()

	if err != nil {
		return Product{}, err
	}
	if stale {
		s.evict(ctx, id)
	}
	return p, nil
}

// written must run after a write to id has committed and before the cache is updated.
func (s *CachedStore) written(id string) {
	s.mu.Lock()
	if st := s.fills[id]; st != nil {
		st.gen++
	}
	s.mu.Unlock()
	s.group.Forget(id)
}

func (s *CachedStore) Create(ctx context.Context, in ProductInput) (Product, error) {
	p, err := s.next.Create(ctx, in)
	if err != nil {
		return Product{}, err
	}
	s.put(ctx, p)
	return p, nil
}

func (s *CachedStore) Update(ctx context.Context, id string, in ProductInput) (Product, error) {
	p, err := s.next.Update(ctx, id, in)
	if err != nil {
		return Product{}, err
	}
	s.written(id)
	s.put(ctx, p)
	return p, nil
}

func (s *CachedStore) Delete(ctx context.Context, id string) (Product, error) {
	p, err := s.next.Delete(ctx, id)
	if err != nil {
		return Product{}, err
	}
	s.written(id)
	s.evict(ctx, id)
	return p, nil
}

func (s *CachedStore) put(ctx context.Context, p Product) {
	err := s.cache.Set(ctx, cacheKey(p.ID), p)
	if err == nil {
		return
	}
	s.log.Warn("cache set failed", zap.Error(err), zap.String("id", p.ID))
	// Drop whatever older copy may still be cached.
	s.evict(ctx, p.ID)
}

func (s *CachedStore) evict(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.log.Warn("cache evict failed", zap.Error(err), zap.String("id", id))
	}
}
