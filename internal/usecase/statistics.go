package usecase

import (
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/watchlens/backend/internal/domain"
)

// MaxSearchResults caps the number of records returned by Search
const MaxSearchResults = 100

// PriceStats summarizes the usable prices of a record set
type PriceStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Std    float64 `json:"std"`
}

// BrandStats describes the listings of one brand
type BrandStats struct {
	Count        int         `json:"count"`
	AveragePrice *float64    `json:"avgPrice"`
	PriceRange   *[2]float64 `json:"priceRange"`
}

// CatalogStats is a descriptive summary of a catalog
type CatalogStats struct {
	TotalRecords      int                   `json:"totalWatches"`
	TotalBrands       int                   `json:"totalBrands"`
	TotalSites        int                   `json:"totalSites"`
	BrandDistribution map[string]int        `json:"brandDistribution"`
	SiteDistribution  map[string]int        `json:"siteDistribution"`
	Prices            *PriceStats           `json:"prices,omitempty"`
	BrandDetails      map[string]BrandStats `json:"brandDetails"`
	Completeness      map[string]float64    `json:"completeness"`
}

// ComputeStatistics summarizes catalog. Prices are taken from records with a
// usable price only; completeness is the percentage of records carrying each field.
func ComputeStatistics(catalog domain.Catalog) CatalogStats {
	stats := CatalogStats{
		TotalRecords:      len(catalog),
		BrandDistribution: countBy(catalog, func(r domain.ProductRecord) string { return r.Brand }),
		SiteDistribution:  countBy(catalog, func(r domain.ProductRecord) string { return r.Site }),
		BrandDetails:      map[string]BrandStats{},
		Completeness:      completeness(catalog),
	}
	stats.TotalBrands = len(stats.BrandDistribution)
	stats.TotalSites = len(stats.SiteDistribution)

	if prices := pricesOf(catalog); len(prices) > 0 {
		s := summarize(prices)
		stats.Prices = &PriceStats{
			Count:  s.count,
			Mean:   s.mean,
			Median: s.median,
			Min:    s.min,
			Max:    s.max,
			Std:    s.std,
		}
	}

	for brand, records := range lo.GroupBy(catalog, func(r domain.ProductRecord) string { return r.Brand }) {
		detail := BrandStats{Count: len(records)}
		if prices := pricesOf(records); len(prices) > 0 {
			s := summarize(prices)
			detail.AveragePrice = &s.mean
			detail.PriceRange = &[2]float64{s.min, s.max}
		}
		stats.BrandDetails[brand] = detail
	}

	return stats
}

// Search returns up to limit records whose title, brand or model contains
// query case-insensitively, in catalog order. An empty query matches everything.
func Search(catalog domain.Catalog, query string, limit int) []domain.ProductRecord {
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}
	query = strings.ToLower(strings.TrimSpace(query))

	results := make([]domain.ProductRecord, 0, min(limit, len(catalog)))
	for _, r := range catalog {
		if len(results) == limit {
			break
		}
		text := strings.ToLower(r.Title + " " + r.Brand + " " + r.Model)
		if strings.Contains(text, query) {
			results = append(results, r)
		}
	}
	return results
}

// TopBrands returns brand names ordered by descending listing count, then name.
func TopBrands(stats CatalogStats, n int) []string {
	brands := lo.Keys(stats.BrandDistribution)
	sort.Slice(brands, func(i, j int) bool {
		ci, cj := stats.BrandDistribution[brands[i]], stats.BrandDistribution[brands[j]]
		if ci != cj {
			return ci > cj
		}
		return brands[i] < brands[j]
	})
	if n > 0 && len(brands) > n {
		brands = brands[:n]
	}
	return brands
}

func countBy(catalog domain.Catalog, key func(r domain.ProductRecord) string) map[string]int {
	return lo.MapValues(lo.GroupBy(catalog, key), func(records []domain.ProductRecord, _ string) int {
		return len(records)
	})
}

func pricesOf(records []domain.ProductRecord) []float64 {
	return lo.FilterMap(records, func(r domain.ProductRecord, _ int) (float64, bool) {
		return r.PriceValue(), r.HasPrice()
	})
}

func completeness(catalog domain.Catalog) map[string]float64 {
	fields := map[string]func(r *domain.ProductRecord) bool{
		"title":     func(r *domain.ProductRecord) bool { return r.Title != "" },
		"price":     func(r *domain.ProductRecord) bool { return r.HasPrice() },
		"brand":     func(r *domain.ProductRecord) bool { return r.Brand != "" && r.Brand != domain.UnknownBrand },
		"reference": func(r *domain.ProductRecord) bool { return r.Reference != "" },
		"model":     func(r *domain.ProductRecord) bool { return r.Model != "" },
		"images":    func(r *domain.ProductRecord) bool { return len(r.Images) > 0 },
	}

	out := make(map[string]float64, len(fields))
	for name, present := range fields {
		if len(catalog) == 0 {
			out[name] = 0
			continue
		}
		n := 0
		for i := range catalog {
			if present(&catalog[i]) {
				n++
			}
		}
		out[name] = float64(n) / float64(len(catalog)) * 100
	}
	return out
}
