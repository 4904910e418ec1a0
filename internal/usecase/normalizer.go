package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/watchlens/backend/internal/domain"
)

// DefaultReportingCurrency is the currency all normalized prices are expressed in
const DefaultReportingCurrency = "GBP"

var (
	// priceNoiseRegex strips currency symbols, encoding artifacts, separators and whitespace
	priceNoiseRegex = regexp.MustCompile(`[£$€Â,\s\x{00A0}]`)
	// priceNumberRegex matches the first signed decimal number left after stripping
	priceNumberRegex = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// currencySymbols maps price symbols to ISO codes, checked in order
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"£", "GBP"},
	{"€", "EUR"},
	{"$", "USD"},
}

// CurrencyConfig describes the reporting currency and conversion rates into it
type CurrencyConfig struct {
	Reporting string
	Rates     map[string]float64
}

// Normalizer cleans, deduplicates and standardizes raw scraper records
type Normalizer struct {
	brandTable map[string]string
	brands     keywordList
	conditions keywordList
	reporting  string
	rates      map[string]float64
}

// NewNormalizer creates a normalizer from the vocabulary and currency settings.
func NewNormalizer(vocab Vocabulary, currency CurrencyConfig) (*Normalizer, error) {
	reporting := strings.ToUpper(strings.TrimSpace(currency.Reporting))
	if reporting == "" {
		reporting = DefaultReportingCurrency
	}

	rates := map[string]float64{reporting: 1}
	for code, rate := range currency.Rates {
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return nil, fmt.Errorf("%w: exchange rate for %s must be positive, got %v", domain.ErrInvalidConfiguration, code, rate)
		}
		rates[strings.ToUpper(code)] = rate
	}
	if rates[reporting] != 1 {
		return nil, fmt.Errorf("%w: reporting currency %s must have rate 1", domain.ErrInvalidConfiguration, reporting)
	}

	table := make(map[string]string, len(vocab.Brands)*2+len(vocab.BrandAliases))
	for _, b := range vocab.Brands {
		table[strings.ToLower(b.Term)] = b.Label
		table[strings.ToLower(b.Label)] = b.Label
	}
	for alias, label := range vocab.BrandAliases {
		table[strings.ToLower(strings.TrimSpace(alias))] = label
	}

	return &Normalizer{
		brandTable: table,
		brands:     newKeywordList(vocab.Brands, false),
		conditions: newKeywordList(vocab.Conditions, true),
		reporting:  reporting,
		rates:      rates,
	}, nil
}

// Normalize turns raw records into catalog records.
// Duplicates by URL collapse to the first seen record; records without a URL
// are returned as rejected. Per-field problems never reject a record.
func (n *Normalizer) Normalize(raw []domain.RawRecord) ([]domain.ProductRecord, []domain.RejectedRecord) {
	records := make([]domain.ProductRecord, 0, len(raw))
	var rejected []domain.RejectedRecord
	seen := make(map[string]bool, len(raw))

	for i, r := range raw {
		url := cleanText(r.StringOr("url", ""))
		if url == "" {
			rejected = append(rejected, domain.RejectedRecord{
				Index:  i,
				Site:   cleanText(r.StringOr("site", "")),
				Reason: domain.ErrMissingIdentity.Error(),
			})
			continue
		}
		if seen[url] {
			continue
		}
		seen[url] = true

		records = append(records, n.normalizeRecord(url, r))
	}

	return records, rejected
}

// NormalizeRecord normalizes a single raw record.
// Returns ErrMissingIdentity when the record has no URL.
func (n *Normalizer) NormalizeRecord(r domain.RawRecord) (domain.ProductRecord, error) {
	url := cleanText(r.StringOr("url", ""))
	if url == "" {
		return domain.ProductRecord{}, domain.ErrMissingIdentity
	}
	return n.normalizeRecord(url, r), nil
}

func (n *Normalizer) normalizeRecord(url string, r domain.RawRecord) domain.ProductRecord {
	title := cleanField(r, "title")
	price, currency := n.normalizePrice(r)

	images := r.Strings("images")
	if len(images) == 0 {
		images = r.Strings("image_url")
	}

	return domain.ProductRecord{
		URL:            url,
		Site:           cleanField(r, "site"),
		Title:          title,
		Price:          price,
		Currency:       currency,
		Brand:          n.CanonicalBrand(cleanField(r, "brand"), title),
		Model:          cleanField(r, "model"),
		Reference:      cleanField(r, "reference"),
		Year:           cleanField(r, "year"),
		Condition:      n.canonicalCondition(cleanField(r, "condition")),
		DialColor:      cleanField(r, "dial_color"),
		Material:       cleanField(r, "material"),
		Movement:       cleanField(r, "movement"),
		Description:    cleanField(r, "description"),
		Images:         lo.Uniq(lo.Compact(images)),
		Availability:   cleanField(r, "availability"),
		Specifications: r.StringMap("specifications"),
	}
}

// CanonicalBrand maps brand through the canonicalization table. An empty or
// unknown brand falls back to the first known brand named in title, then to
// UnknownBrand. Unrecognized brands pass through verbatim.
func (n *Normalizer) CanonicalBrand(brand, title string) string {
	brand = cleanText(brand)
	if brand == "" || strings.EqualFold(brand, domain.UnknownBrand) {
		if found := n.brands.first(strings.ToLower(title)); found != "" {
			return found
		}
		return domain.UnknownBrand
	}
	if canonical, ok := n.brandTable[strings.ToLower(brand)]; ok {
		return canonical
	}
	return brand
}

func (n *Normalizer) canonicalCondition(condition string) string {
	if label, ok := n.conditions.lookup(condition); ok {
		return label
	}
	return condition
}

// normalizePrice parses the raw price and converts it into the reporting
// currency. Unparseable, non-positive or unconvertible prices become nil.
func (n *Normalizer) normalizePrice(r domain.RawRecord) (*float64, string) {
	priceText, _ := r.String("price")
	currency := strings.ToUpper(cleanField(r, "currency"))
	if code := detectCurrency(currency); code != "" {
		currency = code
	}
	if currency == "" {
		currency = detectCurrency(priceText)
	}
	if currency == "" {
		currency = n.reporting
	}

	amount, ok := parseRawPrice(r.Value("price"))
	if !ok || amount <= 0 {
		return nil, currency
	}

	rate, known := n.rates[currency]
	if !known {
		return nil, currency
	}

	converted, _ := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(rate)).
		Round(2).
		Float64()
	if converted <= 0 {
		return nil, currency
	}
	return &converted, n.reporting
}

// ParsePrice extracts a number from mixed-format price text such as
// "£1,250.00" or "Â£8,500". Returns false when no number is present.
func ParsePrice(text string) (float64, bool) {
	cleaned := priceNoiseRegex.ReplaceAllString(text, "")
	match := priceNumberRegex.FindString(cleaned)
	if match == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(match)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

func parseRawPrice(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		return ParsePrice(val.String())
	case string:
		if domain.IsNullToken(val) {
			return 0, false
		}
		return ParsePrice(val)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func detectCurrency(priceText string) string {
	for _, cs := range currencySymbols {
		if strings.Contains(priceText, cs.symbol) {
			return cs.code
		}
	}
	return ""
}

// cleanField returns the cleaned string value of key, "" when absent or null-like
func cleanField(r domain.RawRecord, key string) string {
	s, ok := r.String(key)
	if !ok {
		return ""
	}
	return cleanText(s)
}

// cleanText trims, collapses whitespace and maps null-like tokens to ""
func cleanText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if domain.IsNullToken(s) {
		return ""
	}
	return s
}
