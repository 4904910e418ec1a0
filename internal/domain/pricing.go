package domain

// Field names reported in SimilarityMatch.MatchedFields
const (
	FieldBrand     = "brand"
	FieldReference = "reference"
	FieldModel     = "model"
	FieldTitle     = "title"
)

// SimilarityMatch is the result of comparing a query with one catalog record
type SimilarityMatch struct {
	Score         float64        `json:"score"`
	MatchedFields []string       `json:"matchedFields"`
	CatalogRecord *ProductRecord `json:"record"` // points into the catalog, not owned
}

// PricePoint is one priced listing that contributed to a comparison
type PricePoint struct {
	Price float64 `json:"price"`
	Site  string  `json:"site"`
	URL   string  `json:"url"`
	Title string  `json:"title"`
}

// PriceComparison summarizes the prices of a set of matches
type PriceComparison struct {
	MatchCount       int          `json:"similarWatchesCount"`
	Count            int          `json:"priceDataAvailable"`
	MeanPrice        float64      `json:"averagePrice"`
	MedianPrice      float64      `json:"medianPrice"`
	MinPrice         float64      `json:"minPrice"`
	MaxPrice         float64      `json:"maxPrice"`
	PriceRange       float64      `json:"priceRange"`
	RecommendedPrice float64      `json:"recommendedPrice"`
	PriceDetails     []PricePoint `json:"priceDetails,omitempty"`
}

// Repricing actions
const (
	ActionKeep    = "keep"
	ActionLower   = "lower"
	ActionRaise   = "raise"
	ActionNoPrice = "no_current_price"
)

// RepricingAdvice compares a seller's current price with the recommendation
type RepricingAdvice struct {
	CurrentPrice   float64 `json:"currentPrice"`
	SuggestedPrice float64 `json:"suggestedPrice"`
	Difference     float64 `json:"difference"`
	Action         string  `json:"action"`
	Clamped        bool    `json:"clamped"`
}

// PricingRequest describes a listing to price against the catalog
type PricingRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	Model        string   `json:"model,omitempty"`
	Reference    string   `json:"reference,omitempty"`
	CurrentPrice *float64 `json:"currentPrice,omitempty"`
	Threshold    *float64 `json:"threshold,omitempty"`
}

// Recommendation is the outcome of pricing one request
type Recommendation struct {
	Query      ProductRecord     `json:"query"`
	Matches    []SimilarityMatch `json:"matches"`
	Comparison *PriceComparison  `json:"comparison,omitempty"`
	Advice     *RepricingAdvice  `json:"advice,omitempty"`
}
