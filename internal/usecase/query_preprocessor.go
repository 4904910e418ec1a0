package usecase

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/watchlens/backend/internal/domain"
)

var (
	// nonAlphanumericRegex strips everything but letters, digits and spaces from cache keys
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	// multipleSpacesRegex collapses runs of whitespace
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// QueryPreprocessor turns a pricing request into the query record that is
// matched against the catalog
type QueryPreprocessor struct {
	extractor          *Extractor
	normalizer         *Normalizer
	enableDebugLogging bool
	logger             zerolog.Logger
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(
	extractor *Extractor,
	normalizer *Normalizer,
	logger *zerolog.Logger,
	enableDebugLogging bool,
) *QueryPreprocessor {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &QueryPreprocessor{
		extractor:          extractor,
		normalizer:         normalizer,
		enableDebugLogging: enableDebugLogging,
		logger:             l,
	}
}

// PreprocessQuery builds the query record for request.
// Text is cleaned the same way catalog records are, the brand goes through the
// canonicalization table and empty attributes are filled from title and description.
func (p *QueryPreprocessor) PreprocessQuery(request *domain.PricingRequest) domain.ProductRecord {
	title := cleanText(request.Title)

	record := domain.ProductRecord{
		Title:       title,
		Description: cleanText(request.Description),
		Brand:       p.normalizer.CanonicalBrand(request.Brand, title),
		Model:       cleanText(request.Model),
		Reference:   cleanText(request.Reference),
	}
	if request.CurrentPrice != nil && *request.CurrentPrice > 0 {
		price := *request.CurrentPrice
		record.Price = &price
	}

	p.extractor.Enrich(&record)

	if p.enableDebugLogging {
		p.logger.Debug().
			Str("title", request.Title).
			Str("brand", record.Brand).
			Str("model", record.Model).
			Str("reference", record.Reference).
			Msg("preprocessed query")
	}

	return record
}

// QueryKey returns a normalized key identifying the query record.
// Format: "{brand}:{reference}:{model}:{title}"
func QueryKey(record *domain.ProductRecord) string {
	return strings.Join([]string{
		normalizeForKey(record.Brand),
		normalizeForKey(record.Reference),
		normalizeForKey(record.Model),
		normalizeForKey(record.Title),
	}, ":")
}

// normalizeForKey lower-cases s, removes special characters and collapses whitespace
func normalizeForKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
