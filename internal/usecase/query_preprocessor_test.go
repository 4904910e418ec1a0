package usecase

import (
	"testing"

	"github.com/samber/lo"
	"github.com/watchlens/backend/internal/domain"
)

func newTestPreprocessor(t *testing.T) *QueryPreprocessor {
	t.Helper()
	return NewQueryPreprocessor(newTestExtractor(t), newTestNormalizer(t), nil, true)
}

func TestPreprocessQuery(t *testing.T) {
	p := newTestPreprocessor(t)

	tests := []struct {
		name    string
		request domain.PricingRequest
		want    domain.ProductRecord
	}{
		{
			name:    "attributes from title",
			request: domain.PricingRequest{Title: "  ROLEX SUBMARINER DATE 116610LN  BLACK DIAL "},
			want: domain.ProductRecord{
				Title:     "ROLEX SUBMARINER DATE 116610LN BLACK DIAL",
				Brand:     "Rolex",
				Model:     "Submariner Date",
				Reference: "116610LN",
				DialColor: "Black",
			},
		},
		{
			name: "explicit fields win over extraction",
			request: domain.PricingRequest{
				Title:     "Rolex Submariner 116610LN",
				Brand:     "rolex",
				Model:     "Submariner Hulk",
				Reference: "116610LV",
			},
			want: domain.ProductRecord{
				Title:     "Rolex Submariner 116610LN",
				Brand:     "Rolex",
				Model:     "Submariner Hulk",
				Reference: "116610LV",
			},
		},
		{
			name:    "brand alias",
			request: domain.PricingRequest{Title: "Royal Oak 15500ST", Brand: "AP"},
			want: domain.ProductRecord{
				Title:     "Royal Oak 15500ST",
				Brand:     "Audemars Piguet",
				Model:     "Royal Oak",
				Reference: "15500ST",
			},
		},
		{
			name:    "unknown brand",
			request: domain.PricingRequest{Title: "vintage diver"},
			want: domain.ProductRecord{
				Title: "vintage diver",
				Brand: domain.UnknownBrand,
			},
		},
		{
			name:    "null-like fields are dropped",
			request: domain.PricingRequest{Title: "Omega Seamaster", Model: "n/a", Description: "None"},
			want: domain.ProductRecord{
				Title: "Omega Seamaster",
				Brand: "Omega",
				Model: "Seamaster",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.PreprocessQuery(&tt.request)
			if got.Title != tt.want.Title {
				t.Errorf("Title = %q, want %q", got.Title, tt.want.Title)
			}
			if got.Attributes() != tt.want.Attributes() {
				t.Errorf("Attributes() = %+v, want %+v", got.Attributes(), tt.want.Attributes())
			}
		})
	}
}

func TestPreprocessQueryPrice(t *testing.T) {
	p := newTestPreprocessor(t)

	got := p.PreprocessQuery(&domain.PricingRequest{Title: "Rolex", CurrentPrice: lo.ToPtr(9000.0)})
	if got.PriceValue() != 9000 {
		t.Errorf("Price = %v, want 9000", got.PriceValue())
	}

	got = p.PreprocessQuery(&domain.PricingRequest{Title: "Rolex", CurrentPrice: lo.ToPtr(0.0)})
	if got.Price != nil {
		t.Errorf("Price = %v, want nil", *got.Price)
	}
}

func TestQueryKey(t *testing.T) {
	tests := []struct {
		name   string
		record domain.ProductRecord
		want   string
	}{
		{
			name:   "all fields",
			record: domain.ProductRecord{Brand: "Rolex", Reference: "116610LN", Model: "Submariner Date", Title: "Rolex  Sub-Date!"},
			want:   "rolex:116610ln:submariner date:rolex subdate",
		},
		{
			name:   "empty fields keep separators",
			record: domain.ProductRecord{Title: "Speedy"},
			want:   ":::speedy",
		},
		{
			name:   "dotted reference",
			record: domain.ProductRecord{Brand: "Omega", Reference: "310.30.42.50.01.001"},
			want:   "omega:31030425001001::",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QueryKey(&tt.record); got != tt.want {
				t.Errorf("QueryKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
