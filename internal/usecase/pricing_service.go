package usecase

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/watchlens/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

// MaxBatchSize bounds the number of requests priced in one batch
const MaxBatchSize = 100

// PricingServiceConfig holds configuration for the pricing service
type PricingServiceConfig struct {
	Workers int
	Logger  *zerolog.Logger
}

// BatchResult is the outcome of one request of a batch
type BatchResult struct {
	Index          int
	Recommendation *domain.Recommendation
	Err            error
}

// PricingService prices listings against the catalog
type PricingService struct {
	catalog      domain.CatalogSource
	preprocessor *QueryPreprocessor
	matcher      *MatchingService
	aggregator   *PriceAggregator
	advisor      *RepricingAdvisor
	workers      int
	logger       zerolog.Logger
}

// NewPricingService creates a new pricing service with dependencies
func NewPricingService(
	catalog domain.CatalogSource,
	preprocessor *QueryPreprocessor,
	matcher *MatchingService,
	aggregator *PriceAggregator,
	advisor *RepricingAdvisor,
	config PricingServiceConfig,
) *PricingService {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}
	return &PricingService{
		catalog:      catalog,
		preprocessor: preprocessor,
		matcher:      matcher,
		aggregator:   aggregator,
		advisor:      advisor,
		workers:      workers,
		logger:       logger,
	}
}

// Recommend prices one listing.
// Flow: snapshot catalog -> build query -> match -> compare prices -> advise.
// When nothing matched or no match is priced, the partial recommendation is
// returned together with ErrNoSimilarProducts or ErrNoPriceData.
func (s *PricingService) Recommend(
	ctx context.Context,
	request *domain.PricingRequest,
) (*domain.Recommendation, error) {
	if err := validateRequest(request); err != nil {
		return nil, err
	}

	catalog, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return s.recommend(catalog, request)
}

// RecommendBatch prices every request against the same catalog snapshot.
// Per-request failures are reported in the result, index-aligned with requests.
func (s *PricingService) RecommendBatch(
	ctx context.Context,
	requests []domain.PricingRequest,
) ([]BatchResult, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w: at least one request is required", domain.ErrInvalidRequest)
	}
	if len(requests) > MaxBatchSize {
		return nil, fmt.Errorf("%w: batch size %d exceeds %d", domain.ErrInvalidRequest, len(requests), MaxBatchSize)
	}

	catalog, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(requests))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers)

	for i := range requests {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			result := BatchResult{Index: i}
			if err := validateRequest(&requests[i]); err != nil {
				result.Err = err
			} else {
				result.Recommendation, result.Err = s.recommend(catalog, &requests[i])
			}
			results[i] = result
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *PricingService) recommend(
	catalog domain.Catalog,
	request *domain.PricingRequest,
) (*domain.Recommendation, error) {
	query := s.preprocessor.PreprocessQuery(request)

	threshold := s.matcher.Threshold()
	if request.Threshold != nil {
		threshold = *request.Threshold
	}
	matches, err := s.matcher.FindMatchesAbove(&query, catalog, threshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	recommendation := &domain.Recommendation{
		Query:   query,
		Matches: matches,
	}

	comparison, err := s.aggregator.Compare(matches)
	if err != nil {
		s.logger.Debug().
			Str("query", QueryKey(&query)).
			Int("matches", len(matches)).
			Err(err).
			Msg("no recommendation")
		return recommendation, err
	}

	recommendation.Comparison = comparison
	recommendation.Advice = s.advisor.Advise(request.CurrentPrice, comparison.RecommendedPrice)

	s.logger.Debug().
		Str("query", QueryKey(&query)).
		Int("matches", len(matches)).
		Float64("recommended", comparison.RecommendedPrice).
		Msg("price recommended")

	return recommendation, nil
}

func validateRequest(request *domain.PricingRequest) error {
	if request == nil || cleanText(request.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	}
	return nil
}
