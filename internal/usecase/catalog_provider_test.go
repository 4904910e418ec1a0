package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchlens/backend/internal/domain"
	"github.com/watchlens/backend/internal/domain/domaintesting"
	"github.com/watchlens/backend/internal/infrastructure/cache"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// gatedStore holds its first LoadCatalog until release is closed
type gatedStore struct {
	*domaintesting.MemoryStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(records ...domain.ProductRecord) *gatedStore {
	return &gatedStore{
		MemoryStore: domaintesting.NewMemoryStore(records...),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (s *gatedStore) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	catalog, err := s.MemoryStore.LoadCatalog(ctx)
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return catalog, err
}

func TestCatalogProviderSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("loads once per ttl", func(t *testing.T) {
		clock := &stepClock{now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
		store := domaintesting.NewMemoryStore(domaintesting.FakeRecord(), domaintesting.FakeRecord())
		provider := NewCatalogProvider(cache.NewMemoryCache(cache.WithClock(clock)), store, time.Minute, nil)

		for i := 0; i < 3; i++ {
			catalog, err := provider.Snapshot(ctx)
			require.NoError(t, err)
			assert.Len(t, catalog, 2)
		}
		assert.Equal(t, 1, store.Loads)

		clock.Advance(time.Minute)
		_, err := provider.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, store.Loads)
	})

	t.Run("invalidate forces reload", func(t *testing.T) {
		store := domaintesting.NewMemoryStore(domaintesting.FakeRecord())
		provider := NewCatalogProvider(cache.NewMemoryCache(), store, 0, nil)

		_, err := provider.Snapshot(ctx)
		require.NoError(t, err)

		_, err = store.SaveRecords(ctx, []domain.ProductRecord{domaintesting.FakeRecord()})
		require.NoError(t, err)
		require.NoError(t, provider.Invalidate(ctx))

		catalog, err := provider.Snapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, catalog, 2)
		assert.Equal(t, 2, store.Loads)
	})

	t.Run("invalidate during a load is not overwritten", func(t *testing.T) {
		store := newGatedStore(domaintesting.FakeRecord())
		provider := NewCatalogProvider(cache.NewMemoryCache(), store, time.Hour, nil)

		done := make(chan int)
		go func() {
			catalog, _ := provider.Snapshot(ctx)
			done <- len(catalog)
		}()

		<-store.entered
		_, err := store.SaveRecords(ctx, []domain.ProductRecord{domaintesting.FakeRecord()})
		require.NoError(t, err)
		require.NoError(t, provider.Invalidate(ctx))
		close(store.release)

		assert.Equal(t, 1, <-done)

		catalog, err := provider.Snapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, catalog, 2)
	})

	t.Run("concurrent callers see the same snapshot", func(t *testing.T) {
		store := domaintesting.NewMemoryStore(domaintesting.FakeRecord())
		provider := NewCatalogProvider(cache.NewMemoryCache(), store, 0, nil)

		sizes := make([]int, 20)
		errs := make([]error, 20)
		var wg sync.WaitGroup
		for i := range sizes {
			wg.Add(1)
			go func() {
				defer wg.Done()
				catalog, err := provider.Snapshot(ctx)
				sizes[i], errs[i] = len(catalog), err
			}()
		}
		wg.Wait()

		for i := range sizes {
			assert.NoError(t, errs[i])
			assert.Equal(t, 1, sizes[i])
		}
		assert.GreaterOrEqual(t, store.Loads, 1)
	})

	t.Run("store failure", func(t *testing.T) {
		store := domaintesting.NewMemoryStore()
		store.Err = errors.New("disk I/O error")
		provider := NewCatalogProvider(cache.NewMemoryCache(), store, 0, nil)

		_, err := provider.Snapshot(ctx)
		assert.ErrorIs(t, err, domain.ErrStoreFailure)
		assert.Contains(t, err.Error(), "disk I/O error")
	})
}
