package domain

import "math"

// UnknownBrand is the brand assigned when neither the raw brand nor the title
// names a recognizable brand.
const UnknownBrand = "Unknown"

// ProductRecord represents one normalized watch listing
type ProductRecord struct {
	URL            string            `json:"url"`
	Site           string            `json:"site"`
	Title          string            `json:"title"`
	Price          *float64          `json:"price"`
	Currency       string            `json:"currency,omitempty"`
	Brand          string            `json:"brand"`
	Model          string            `json:"model,omitempty"`
	Reference      string            `json:"reference,omitempty"`
	Year           string            `json:"year,omitempty"`
	Condition      string            `json:"condition,omitempty"`
	DialColor      string            `json:"dialColor,omitempty"`
	Material       string            `json:"material,omitempty"`
	Movement       string            `json:"movement,omitempty"`
	Description    string            `json:"description,omitempty"`
	Images         []string          `json:"images,omitempty"`
	Availability   string            `json:"availability,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

// HasPrice reports whether the record carries a usable price
func (r *ProductRecord) HasPrice() bool {
	return r != nil && r.Price != nil && *r.Price > 0 && !math.IsInf(*r.Price, 0) && !math.IsNaN(*r.Price)
}

// PriceValue returns the price or 0 when absent
func (r *ProductRecord) PriceValue() float64 {
	if !r.HasPrice() {
		return 0
	}
	return *r.Price
}

// Attributes returns the structured attributes carried by the record
func (r *ProductRecord) Attributes() Attributes {
	return Attributes{
		Brand:     r.Brand,
		Model:     r.Model,
		Reference: r.Reference,
		Year:      r.Year,
		Condition: r.Condition,
		DialColor: r.DialColor,
		Material:  r.Material,
		Movement:  r.Movement,
	}
}

// Raw converts the record back into the loosely typed shape scrapers produce.
func (r *ProductRecord) Raw() RawRecord {
	raw := RawRecord{
		"url":          r.URL,
		"site":         r.Site,
		"title":        r.Title,
		"currency":     r.Currency,
		"brand":        r.Brand,
		"model":        r.Model,
		"reference":    r.Reference,
		"year":         r.Year,
		"condition":    r.Condition,
		"dial_color":   r.DialColor,
		"material":     r.Material,
		"movement":     r.Movement,
		"description":  r.Description,
		"availability": r.Availability,
	}
	if r.Price != nil {
		raw["price"] = *r.Price
	}
	if len(r.Images) > 0 {
		images := make([]any, 0, len(r.Images))
		for _, img := range r.Images {
			images = append(images, img)
		}
		raw["images"] = images
	}
	if len(r.Specifications) > 0 {
		specs := make(map[string]any, len(r.Specifications))
		for k, v := range r.Specifications {
			specs[k] = v
		}
		raw["specifications"] = specs
	}
	return raw
}

// Attributes holds the structured fields extracted from free text
type Attributes struct {
	Brand     string `json:"brand,omitempty"`
	Model     string `json:"model,omitempty"`
	Reference string `json:"reference,omitempty"`
	Year      string `json:"year,omitempty"`
	Condition string `json:"condition,omitempty"`
	DialColor string `json:"dialColor,omitempty"`
	Material  string `json:"material,omitempty"`
	Movement  string `json:"movement,omitempty"`
}

// Catalog is a deduplicated collection of records used as the comparison
// universe of a matching query. It must not be mutated while a query runs.
type Catalog []ProductRecord

// RejectedRecord describes a raw record the normalizer refused
type RejectedRecord struct {
	Index  int    `json:"index"`
	Site   string `json:"site,omitempty"`
	Reason string `json:"reason"`
}
