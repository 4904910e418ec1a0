package domaintesting

import (
	"math/rand"

	"github.com/go-faker/faker/v4"
	"github.com/samber/lo"
	"github.com/watchlens/backend/internal/domain"
)

// FakeRecord returns domain.ProductRecord with fake data.
// The URL is unique per call; brand and reference are left for options to set.
func FakeRecord(ops ...func(r *domain.ProductRecord)) domain.ProductRecord {
	record := domain.ProductRecord{
		URL:          faker.URL() + "/" + faker.UUIDDigit(),
		Site:         faker.DomainName(),
		Title:        faker.Sentence(),
		Price:        lo.ToPtr(float64(1000 + rand.Intn(20000))),
		Currency:     "GBP",
		Brand:        domain.UnknownBrand,
		Description:  faker.Paragraph(),
		Images:       []string{faker.URL()},
		Availability: "In stock",
	}

	for _, op := range ops {
		op(&record)
	}

	return record
}

// FakeRaw returns a raw scraper record with fake data.
func FakeRaw(ops ...func(r domain.RawRecord)) domain.RawRecord {
	raw := domain.RawRecord{
		"url":   faker.URL() + "/" + faker.UUIDDigit(),
		"site":  faker.DomainName(),
		"title": faker.Sentence(),
		"price": "£1,000.00",
	}

	for _, op := range ops {
		op(raw)
	}

	return raw
}

// WithPrice sets the record price.
func WithPrice(price float64) func(r *domain.ProductRecord) {
	return func(r *domain.ProductRecord) { r.Price = lo.ToPtr(price) }
}

// WithoutPrice clears the record price.
func WithoutPrice() func(r *domain.ProductRecord) {
	return func(r *domain.ProductRecord) { r.Price = nil }
}

// WithIdentity sets brand, reference and model.
func WithIdentity(brand, reference, model string) func(r *domain.ProductRecord) {
	return func(r *domain.ProductRecord) {
		r.Brand = brand
		r.Reference = reference
		r.Model = model
	}
}
