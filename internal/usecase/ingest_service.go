package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/watchlens/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultIngestConcurrency bounds concurrent scraper export fetches
const DefaultIngestConcurrency = 4

// SourceFailure records a scraper export that could not be fetched
type SourceFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// IngestReport summarizes one ingestion run
type IngestReport struct {
	Sources  int                     `json:"sources"`
	Fetched  int                     `json:"fetched"`
	Rejected []domain.RejectedRecord `json:"rejected"`
	Stored   int                     `json:"stored"`
	Priced   int                     `json:"priced"`
	Failures []SourceFailure         `json:"failures"`
}

// IngestConfig holds configuration for the ingest service
type IngestConfig struct {
	Concurrency int
	// AllowedHosts lists the export hosts Ingest may fetch from. An entry
	// "*.example.com" allows subdomains of example.com. Empty allows none.
	AllowedHosts []string
	Logger       *zerolog.Logger
}

// IngestService fetches raw scraper output and turns it into catalog records
type IngestService struct {
	source      domain.RecordSource
	store       domain.CatalogStore
	normalizer  *Normalizer
	extractor   *Extractor
	catalog      *CatalogProvider
	concurrency  int
	allowedHosts []string
	logger       zerolog.Logger
}

// NewIngestService creates a new ingest service with dependencies
func NewIngestService(
	source domain.RecordSource,
	store domain.CatalogStore,
	normalizer *Normalizer,
	extractor *Extractor,
	catalog *CatalogProvider,
	config IngestConfig,
) *IngestService {
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultIngestConcurrency
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}
	return &IngestService{
		source:      source,
		store:       store,
		normalizer:  normalizer,
		extractor:   extractor,
		catalog:      catalog,
		concurrency:  concurrency,
		allowedHosts: config.AllowedHosts,
		logger:       logger,
	}
}

// Ingest fetches every source concurrently, then normalizes, enriches and
// stores the combined records. Records keep source order, so duplicates across
// sources resolve to the earliest source. A failing source is reported and
// skipped; ErrFeedFailure is returned only when every source failed.
// Sources outside the allowed hosts fail the whole request with ErrInvalidRequest.
func (s *IngestService) Ingest(ctx context.Context, sources []string) (*IngestReport, error) {
	sources = lo.Uniq(lo.Compact(sources))
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: at least one source is required", domain.ErrInvalidRequest)
	}
	for _, src := range sources {
		if err := s.checkSource(src); err != nil {
			return nil, err
		}
	}

	batches := make([][]domain.RawRecord, len(sources))
	errs := make([]error, len(sources))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)
	for i, src := range sources {
		eg.Go(func() error {
			records, err := s.source.FetchRecords(egCtx, src)
			if err != nil {
				errs[i] = err
				return nil
			}
			batches[i] = records
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var failures []SourceFailure
	for i, err := range errs {
		if err == nil {
			continue
		}
		s.logger.Warn().Err(err).Str("source", sources[i]).Msg("failed to fetch scraper export")
		failures = append(failures, SourceFailure{Source: sources[i], Error: err.Error()})
	}
	if len(failures) == len(sources) {
		return &IngestReport{Sources: len(sources), Failures: failures},
			fmt.Errorf("%w: all %d sources failed", domain.ErrFeedFailure, len(sources))
	}

	report, err := s.IngestRecords(ctx, lo.Flatten(batches))
	if err != nil {
		return nil, err
	}
	report.Sources = len(sources)
	report.Failures = failures
	return report, nil
}

// IngestRecords normalizes, enriches and stores already fetched raw records,
// then invalidates the cached catalog snapshot.
func (s *IngestService) IngestRecords(ctx context.Context, raw []domain.RawRecord) (*IngestReport, error) {
	records, rejected := s.Prepare(raw)
	for _, r := range rejected {
		s.logger.Warn().Int("index", r.Index).Str("site", r.Site).Str("reason", r.Reason).Msg("rejected raw record")
	}

	report := &IngestReport{
		Fetched:  len(raw),
		Rejected: rejected,
		Priced:   lo.CountBy(records, func(r domain.ProductRecord) bool { return r.HasPrice() }),
	}
	if len(records) == 0 {
		return report, nil
	}

	stored, err := s.store.SaveRecords(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	report.Stored = stored

	if err := s.catalog.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate catalog snapshot")
	}

	s.logger.Info().
		Int("fetched", report.Fetched).
		Int("rejected", len(rejected)).
		Int("stored", stored).
		Int("priced", report.Priced).
		Msg("ingestion complete")

	return report, nil
}

// Prepare normalizes raw listings and fills attributes missing from their
// fields from the title, as ingestion does before storing them.
func (s *IngestService) Prepare(raw []domain.RawRecord) (domain.Catalog, []domain.RejectedRecord) {
	records, rejected := s.normalizer.Normalize(raw)
	for i := range records {
		s.extractor.Enrich(&records[i])
	}
	return records, rejected
}

// checkSource accepts http(s) URLs whose host is in the allow-list
func (s *IngestService) checkSource(source string) error {
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return fmt.Errorf("%w: source %q is not an http(s) URL", domain.ErrInvalidRequest, source)
	}
	if !hostAllowed(u.Hostname(), s.allowedHosts) {
		return fmt.Errorf("%w: source host %q is not allowed", domain.ErrInvalidRequest, u.Hostname())
	}
	return nil
}

func hostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(host)
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if parent, ok := strings.CutPrefix(a, "*."); ok {
			if strings.HasSuffix(host, "."+parent) {
				return true
			}
			continue
		}
		if host == a {
			return true
		}
	}
	return false
}
