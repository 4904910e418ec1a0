package usecase

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/rs/zerolog"
	"github.com/watchlens/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultMatchThreshold is the minimum score for a catalog record to count as a match
const DefaultMatchThreshold = 0.8

// CandidateFilter narrows the catalog before scoring. It must return indexes
// into catalog in ascending order; the default keeps every record.
type CandidateFilter func(query *domain.ProductRecord, catalog domain.Catalog) []int

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	Threshold          float64
	Workers            int
	Candidates         CandidateFilter
	EnableDebugLogging bool
	Logger             *zerolog.Logger
}

// MatchingService finds catalog records similar to a query record
type MatchingService struct {
	scorer             *Scorer
	threshold          float64
	workers            int
	candidates         CandidateFilter
	enableDebugLogging bool
	logger             zerolog.Logger
}

// NewMatchingService creates a new matching service with the given configuration.
// A threshold outside [0,1] is rejected with ErrInvalidConfiguration.
func NewMatchingService(scorer *Scorer, config MatchConfig) (*MatchingService, error) {
	if scorer == nil {
		return nil, fmt.Errorf("%w: scorer is required", domain.ErrInvalidConfiguration)
	}
	if err := validateThreshold(config.Threshold); err != nil {
		return nil, err
	}

	workers := config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	candidates := config.Candidates
	if candidates == nil {
		candidates = allCandidates
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &MatchingService{
		scorer:             scorer,
		threshold:          config.Threshold,
		workers:            workers,
		candidates:         candidates,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger,
	}, nil
}

// Threshold returns the configured match threshold
func (s *MatchingService) Threshold() float64 {
	return s.threshold
}

// FindMatches returns the catalog records scoring at or above the configured
// threshold, sorted by descending score. Ties keep catalog order.
func (s *MatchingService) FindMatches(query *domain.ProductRecord, catalog domain.Catalog) []domain.SimilarityMatch {
	return s.findMatches(query, catalog, s.threshold)
}

// FindMatchesAbove is FindMatches with an explicit threshold.
func (s *MatchingService) FindMatchesAbove(
	query *domain.ProductRecord,
	catalog domain.Catalog,
	threshold float64,
) ([]domain.SimilarityMatch, error) {
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}
	return s.findMatches(query, catalog, threshold), nil
}

// MatchAll matches every query against the same catalog snapshot in parallel.
// The result is index-aligned with queries.
func (s *MatchingService) MatchAll(
	ctx context.Context,
	queries []domain.ProductRecord,
	catalog domain.Catalog,
) ([][]domain.SimilarityMatch, error) {
	results := make([][]domain.SimilarityMatch, len(queries))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers)

	for i := range queries {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[i] = s.findMatches(&queries[i], catalog, s.threshold)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *MatchingService) findMatches(
	query *domain.ProductRecord,
	catalog domain.Catalog,
	threshold float64,
) []domain.SimilarityMatch {
	if query == nil || len(catalog) == 0 {
		return []domain.SimilarityMatch{}
	}

	matches := make([]domain.SimilarityMatch, 0)
	for _, idx := range s.candidates(query, catalog) {
		candidate := &catalog[idx]
		score, fields := s.scorer.Score(query, candidate)

		if s.enableDebugLogging {
			s.logger.Debug().
				Str("query", query.Title).
				Str("candidate", candidate.URL).
				Float64("score", score).
				Strs("fields", fields).
				Msg("scored candidate")
		}

		if score >= threshold {
			matches = append(matches, domain.SimilarityMatch{
				Score:         score,
				MatchedFields: fields,
				CatalogRecord: candidate,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

func allCandidates(_ *domain.ProductRecord, catalog domain.Catalog) []int {
	idx := make([]int, len(catalog))
	for i := range catalog {
		idx[i] = i
	}
	return idx
}

func validateThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
		return fmt.Errorf("%w: match threshold must be within [0,1], got %v", domain.ErrInvalidConfiguration, threshold)
	}
	return nil
}
