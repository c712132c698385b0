package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ProductCatalog/internal/catalog"
)

// mapCache is an in-process Cache storing JSON like the Redis one does.
type mapCache struct {
	mu      sync.Mutex
	m       map[string][]byte
	failSet bool
	hits    int
}

func newMapCache() *mapCache { return &mapCache{m: map[string][]byte{}} }

func (c *mapCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dest)
}

func (c *mapCache) Set(ctx context.Context, key string, value any) error {
	if c.failSet {
		return errors.New("cache down")
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = b
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

func (c *mapCache) Ping(ctx context.Context) error { return nil }

// countingStore counts Get calls that reach the backing store.
type countingStore struct {
	catalog.Store
	gets atomic.Int64
}

func (s *countingStore) Get(ctx context.Context, id string) (catalog.Product, error) {
	s.gets.Add(1)
	return s.Store.Get(ctx, id)
}

// gatedStore pauses the first armed Get after it has read the record, until
// release is closed. The read honours ctx once released.
type gatedStore struct {
	catalog.Store
	armed   atomic.Bool
	fetched chan struct{}
	release chan struct{}
}

func newGatedStore(t *testing.T) *gatedStore {
	g := &gatedStore{
		Store:   newMemStore(t),
		fetched: make(chan struct{}),
		release: make(chan struct{}),
	}
	g.armed.Store(true)
	return g
}

func (g *gatedStore) Get(ctx context.Context, id string) (catalog.Product, error) {
	p, err := g.Store.Get(ctx, id)
	if g.armed.CompareAndSwap(true, false) {
		close(g.fetched)
		<-g.release
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return catalog.Product{}, ctxErr
	}
	return p, err
}

func TestCachedStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: newMemStore(t)}
	c := newMapCache()
	s := catalog.NewCachedStore(backing, c, zap.NewNop())

	p, err := backing.Store.Create(ctx, cup())
	require.NoError(t, err)

	for range 3 {
		got, err := s.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	assert.EqualValues(t, 1, backing.gets.Load())
	assert.Equal(t, 2, c.hits)
}

func TestCachedStore_WritesKeepCacheFresh(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: newMemStore(t)}
	s := catalog.NewCachedStore(backing, newMapCache(), zap.NewNop())

	p, err := s.Create(ctx, cup())
	require.NoError(t, err)

	next := cup()
	next.Name = "Mug"
	_, err = s.Update(ctx, p.ID, next)
	require.NoError(t, err)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mug", got.Name)
	assert.EqualValues(t, 0, backing.gets.Load())

	_, err = s.Delete(ctx, p.ID)
	require.NoError(t, err)

	_, err = s.Get(ctx, p.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCachedStore_CacheFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	c := newMapCache()
	s := catalog.NewCachedStore(newMemStore(t), c, zap.NewNop())

	p, err := s.Create(ctx, cup())
	require.NoError(t, err)

	c.failSet = true
	next := cup()
	next.Name = "Mug"
	_, err = s.Update(ctx, p.ID, next)
	require.NoError(t, err)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mug", got.Name)
}

func TestCachedStore_PassesErrorsThrough(t *testing.T) {
	ctx := context.Background()
	s := catalog.NewCachedStore(newMemStore(t), newMapCache(), nil)

	_, err := s.Get(ctx, "nope")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = s.Create(ctx, catalog.ProductInput{})
	var ve *catalog.ValidationError
	assert.ErrorAs(t, err, &ve)

	require.NoError(t, s.Ping(ctx))
}

func TestCachedStore_DeleteDuringMissIsNotResurrected(t *testing.T) {
	ctx := context.Background()
	backing := newGatedStore(t)
	s := catalog.NewCachedStore(backing, newMapCache(), zap.NewNop())

	p, err := backing.Store.Create(ctx, cup())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Get(ctx, p.ID)
		done <- err
	}()

	<-backing.fetched
	_, err = s.Delete(ctx, p.ID)
	require.NoError(t, err)
	close(backing.release)
	require.NoError(t, <-done)

	_, err = s.Get(ctx, p.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCachedStore_UpdateDuringMissIsNotRolledBack(t *testing.T) {
	ctx := context.Background()
	backing := newGatedStore(t)
	s := catalog.NewCachedStore(backing, newMapCache(), zap.NewNop())

	p, err := backing.Store.Create(ctx, cup())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Get(ctx, p.ID)
		done <- err
	}()

	<-backing.fetched
	next := cup()
	next.Name = "Mug"
	_, err = s.Update(ctx, p.ID, next)
	require.NoError(t, err)
	close(backing.release)
	require.NoError(t, <-done)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mug", got.Name)
}

func TestCachedStore_CanceledCallerDoesNotFailSharedFetch(t *testing.T) {
	backing := newGatedStore(t)
	c := newMapCache()
	s := catalog.NewCachedStore(backing, c, zap.NewNop())

	p, err := backing.Store.Create(context.Background(), cup())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := s.Get(ctx, p.ID)
		first <- err
	}()

	<-backing.fetched
	second := make(chan error, 1)
	go func() {
		_, err := s.Get(context.Background(), p.ID)
		second <- err
	}()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(backing.release)
	require.NoError(t, <-second)

	got, err := s.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}
