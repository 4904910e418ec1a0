package usecase

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
	"github.com/watchlens/backend/internal/domain"
)

// DefaultDiscount is the flat amount subtracted from the cheapest comparable price
const DefaultDiscount = 100.0

// PriceAggregator summarizes matched prices and derives an undercut price
type PriceAggregator struct {
	discount float64
	floor    float64
}

// NewPriceAggregator creates an aggregator. Negative discount or floor is
// rejected with ErrInvalidConfiguration.
func NewPriceAggregator(discount, floor float64) (*PriceAggregator, error) {
	if discount < 0 || math.IsNaN(discount) || math.IsInf(discount, 0) {
		return nil, fmt.Errorf("%w: discount must be non-negative, got %v", domain.ErrInvalidConfiguration, discount)
	}
	if floor < 0 || math.IsNaN(floor) || math.IsInf(floor, 0) {
		return nil, fmt.Errorf("%w: minimum price floor must be non-negative, got %v", domain.ErrInvalidConfiguration, floor)
	}
	return &PriceAggregator{discount: discount, floor: floor}, nil
}

// Compare summarizes the prices of matches.
// Returns ErrNoSimilarProducts for an empty match set and ErrNoPriceData when
// none of the matched records carries a usable price.
func (a *PriceAggregator) Compare(matches []domain.SimilarityMatch) (*domain.PriceComparison, error) {
	if len(matches) == 0 {
		return nil, domain.ErrNoSimilarProducts
	}

	priced := lo.Filter(matches, func(m domain.SimilarityMatch, _ int) bool {
		return m.CatalogRecord.HasPrice()
	})
	if len(priced) == 0 {
		return nil, domain.ErrNoPriceData
	}

	details := lo.Map(priced, func(m domain.SimilarityMatch, _ int) domain.PricePoint {
		return domain.PricePoint{
			Price: *m.CatalogRecord.Price,
			Site:  m.CatalogRecord.Site,
			URL:   m.CatalogRecord.URL,
			Title: m.CatalogRecord.Title,
		}
	})
	prices := lo.Map(details, func(p domain.PricePoint, _ int) float64 { return p.Price })

	summary := summarize(prices)
	return &domain.PriceComparison{
		MatchCount:       len(matches),
		Count:            summary.count,
		MeanPrice:        summary.mean,
		MedianPrice:      summary.median,
		MinPrice:         summary.min,
		MaxPrice:         summary.max,
		PriceRange:       summary.max - summary.min,
		RecommendedPrice: a.Recommend(summary.min),
		PriceDetails:     details,
	}, nil
}

// Recommend returns minPrice minus the discount, never below the floor.
func (a *PriceAggregator) Recommend(minPrice float64) float64 {
	return math.Max(minPrice-a.discount, a.floor)
}

// priceSummary holds descriptive statistics of a price list
type priceSummary struct {
	count  int
	mean   float64
	median float64
	min    float64
	max    float64
	std    float64
}

// summarize computes statistics over a non-empty price list.
// std is the sample standard deviation (0 for a single price).
func summarize(prices []float64) priceSummary {
	if len(prices) == 0 {
		return priceSummary{}
	}

	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)

	n := len(sorted)
	mean := lo.Sum(sorted) / float64(n)

	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	std := 0.0
	if n > 1 {
		var sq float64
		for _, p := range sorted {
			sq += (p - mean) * (p - mean)
		}
		std = math.Sqrt(sq / float64(n-1))
	}

	return priceSummary{
		count:  n,
		mean:   mean,
		median: median,
		min:    sorted[0],
		max:    sorted[n-1],
		std:    std,
	}
}
