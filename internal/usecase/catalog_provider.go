package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/watchlens/backend/internal/domain"
	"golang.org/x/sync/singleflight"
)

// catalogCacheKey is the cache key of the current catalog snapshot
const catalogCacheKey = "catalog:snapshot"

// DefaultCatalogTTL matches the refresh interval of the dashboard data cache
const DefaultCatalogTTL = 5 * time.Minute

// CatalogProvider hands out read-only catalog snapshots, loading them from the
// store at most once per TTL
type CatalogProvider struct {
	cache  domain.CacheRepository
	store  domain.CatalogStore
	ttl    time.Duration
	group  singleflight.Group
	logger zerolog.Logger

	// generation advances on every Invalidate; a load started under an older
	// generation is not cached
	mu         sync.Mutex
	generation uint64
}

// NewCatalogProvider creates a provider over cache and store.
func NewCatalogProvider(
	cache domain.CacheRepository,
	store domain.CatalogStore,
	ttl time.Duration,
	logger *zerolog.Logger,
) *CatalogProvider {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &CatalogProvider{cache: cache, store: store, ttl: ttl, logger: l}
}

// Snapshot returns the current catalog. The returned slice is shared between
// callers and must not be modified.
func (p *CatalogProvider) Snapshot(ctx context.Context) (domain.Catalog, error) {
	if catalog, err := p.fromCache(ctx); err == nil {
		return catalog, nil
	}

	v, err, _ := p.group.Do(catalogCacheKey, func() (interface{}, error) {
		generation := p.currentGeneration()
		catalog, err := p.store.LoadCatalog(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
		}
		p.cacheSnapshot(ctx, catalog, generation)
		p.logger.Debug().Int("records", len(catalog)).Msg("catalog snapshot loaded")
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.Catalog), nil
}

// Invalidate drops the cached snapshot so the next call reloads from the store.
// Loads already in flight neither cache their result nor serve later callers.
func (p *CatalogProvider) Invalidate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.generation++
	p.group.Forget(catalogCacheKey)
	return p.cache.Delete(ctx, catalogCacheKey)
}

func (p *CatalogProvider) currentGeneration() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// cacheSnapshot stores catalog unless an Invalidate happened since generation
func (p *CatalogProvider) cacheSnapshot(ctx context.Context, catalog domain.Catalog, generation uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.generation != generation {
		p.logger.Debug().Msg("catalog invalidated during load, snapshot not cached")
		return
	}
	if err := p.cache.Set(ctx, catalogCacheKey, catalog, p.ttl); err != nil {
		p.logger.Warn().Err(err).Msg("failed to cache catalog snapshot")
	}
}

func (p *CatalogProvider) fromCache(ctx context.Context) (domain.Catalog, error) {
	value, err := p.cache.Get(ctx, catalogCacheKey)
	if err != nil {
		return nil, err
	}
	catalog, ok := value.(domain.Catalog)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return catalog, nil
}
