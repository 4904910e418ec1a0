package domaintesting

import (
	"context"
	"fmt"
	"sync"

	"github.com/watchlens/backend/internal/domain"
)

// MemoryStore is an in-memory domain.CatalogStore keyed by URL.
type MemoryStore struct {
	mu      sync.Mutex
	records domain.Catalog
	index   map[string]int
	Loads   int
	Err     error
}

// NewMemoryStore returns a store holding records.
func NewMemoryStore(records ...domain.ProductRecord) *MemoryStore {
	s := &MemoryStore{index: map[string]int{}}
	_, _ = s.SaveRecords(context.Background(), records)
	return s
}

// SaveRecords upserts records by URL.
func (s *MemoryStore) SaveRecords(_ context.Context, records []domain.ProductRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return 0, s.Err
	}
	for _, r := range records {
		if i, ok := s.index[r.URL]; ok {
			s.records[i] = r
			continue
		}
		s.index[r.URL] = len(s.records)
		s.records = append(s.records, r)
	}
	return len(records), nil
}

// LoadCatalog returns a copy of the stored records.
func (s *MemoryStore) LoadCatalog(_ context.Context) (domain.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Loads++
	if s.Err != nil {
		return nil, s.Err
	}
	return append(domain.Catalog{}, s.records...), nil
}

// StaticSource is a domain.RecordSource serving fixed exports by URL.
// Unknown URLs fail with ErrFeedFailure.
type StaticSource map[string][]domain.RawRecord

// FetchRecords returns the export registered for sourceURL.
func (s StaticSource) FetchRecords(ctx context.Context, sourceURL string) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, ok := s[sourceURL]
	if !ok {
		return nil, fmt.Errorf("%w: status 404", domain.ErrFeedFailure)
	}
	return records, nil
}
