package usecase

import (
	"errors"
	"testing"

	"github.com/watchlens/backend/internal/domain"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(DefaultVocabulary())
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}
	return e
}

func TestNewExtractor(t *testing.T) {
	t.Run("rejects invalid reference pattern", func(t *testing.T) {
		vocab := DefaultVocabulary()
		vocab.ReferencePatterns = append(vocab.ReferencePatterns, `([a-z`)

		_, err := NewExtractor(vocab)
		if !errors.Is(err, domain.ErrInvalidConfiguration) {
			t.Errorf("error = %v, want ErrInvalidConfiguration", err)
		}
	})
}

func TestExtract(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name        string
		title       string
		description string
		want        domain.Attributes
	}{
		{
			name:  "upper-case submariner title",
			title: "ROLEX SUBMARINER DATE 116610LN BLACK DIAL",
			want: domain.Attributes{
				Brand:     "Rolex",
				Model:     "Submariner Date",
				Reference: "116610LN",
				DialColor: "Black",
			},
		},
		{
			name:        "attributes spread over description",
			title:       "Omega Speedmaster Professional",
			description: "Ref. 310.30.42.50.01.001, stainless steel, hand-wound, excellent condition, 2021",
			want: domain.Attributes{
				Brand:     "Omega",
				Model:     "Speedmaster",
				Reference: "310.30.42.50.01.001",
				Year:      "2021",
				Condition: "Excellent",
				Material:  "Stainless Steel",
				Movement:  "Manual",
			},
		},
		{
			name:  "multi-word brand before single-word model",
			title: "Audemars Piguet Royal Oak Offshore 26470ST blue",
			want: domain.Attributes{
				Brand:     "Audemars Piguet",
				Model:     "Royal Oak Offshore",
				Reference: "26470ST",
				DialColor: "Blue",
			},
		},
		{
			name:  "model found without brand",
			title: "Black Bay 58 bronze",
			want: domain.Attributes{
				Model:     "Black Bay",
				DialColor: "Black",
				Material:  "Bronze",
			},
		},
		{
			name:  "year is also taken as reference",
			title: "Omega Seamaster 2019 full set",
			want: domain.Attributes{
				Brand:     "Omega",
				Model:     "Seamaster",
				Reference: "2019",
				Year:      "2019",
			},
		},
		{
			name:  "empty text yields nothing",
			title: "   ",
			want:  domain.Attributes{},
		},
		{
			name:  "unknown watch",
			title: "Casio F-91W digital",
			want:  domain.Attributes{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.title, tt.description)
			if got != tt.want {
				t.Errorf("Extract() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractFirstMatchWins(t *testing.T) {
	e := newTestExtractor(t)

	// both brands appear; list order decides, not position in text
	got := e.ExtractBrand("omega vs rolex comparison")
	if got != "Rolex" {
		t.Errorf("ExtractBrand() = %q, want Rolex", got)
	}
}

func TestEnrich(t *testing.T) {
	e := newTestExtractor(t)

	t.Run("fills empty fields only", func(t *testing.T) {
		record := domain.ProductRecord{
			Title:     "Rolex Submariner Date 116610LN black dial",
			Brand:     domain.UnknownBrand,
			Reference: "116610LV",
			DialColor: "Green",
		}

		e.Enrich(&record)

		if record.Brand != "Rolex" {
			t.Errorf("Brand = %q, want Rolex", record.Brand)
		}
		if record.Model != "Submariner Date" {
			t.Errorf("Model = %q, want Submariner Date", record.Model)
		}
		if record.Reference != "116610LV" {
			t.Errorf("Reference = %q, want existing 116610LV", record.Reference)
		}
		if record.DialColor != "Green" {
			t.Errorf("DialColor = %q, want existing Green", record.DialColor)
		}
	})

	t.Run("keeps unrecognized brand", func(t *testing.T) {
		record := domain.ProductRecord{Title: "Rolex homage", Brand: "Pagani Design"}

		e.Enrich(&record)

		if record.Brand != "Pagani Design" {
			t.Errorf("Brand = %q, want Pagani Design", record.Brand)
		}
	})
}
