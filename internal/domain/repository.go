package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// RecordSource fetches raw listings produced by an external scraper
type RecordSource interface {
	FetchRecords(ctx context.Context, sourceURL string) ([]RawRecord, error)
}

// CatalogStore persists normalized records
type CatalogStore interface {
	SaveRecords(ctx context.Context, records []ProductRecord) (int, error)
	LoadCatalog(ctx context.Context) (Catalog, error)
}

// CatalogSource hands out read-only catalog snapshots
type CatalogSource interface {
	Snapshot(ctx context.Context) (Catalog, error)
}
