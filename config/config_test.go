package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/watchlens/backend/internal/usecase"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Log.Level != "info" {
			t.Errorf("Log.Level = %s, want info", cfg.Log.Level)
		}
		if cfg.Cache.TTL != 5*time.Minute {
			t.Errorf("Cache.TTL = %v, want 5m", cfg.Cache.TTL)
		}
		if cfg.Matching.Threshold != 0.8 {
			t.Errorf("Matching.Threshold = %v, want 0.8", cfg.Matching.Threshold)
		}
		if w := cfg.Matching.Weights; w.Brand != 0.4 || w.Reference != 0.3 || w.Model != 0.2 || w.Title != 0.1 {
			t.Errorf("Matching.Weights = %+v, want 0.4/0.3/0.2/0.1", w)
		}
		if cfg.Pricing.Discount != 100 {
			t.Errorf("Pricing.Discount = %v, want 100", cfg.Pricing.Discount)
		}
		if cfg.Pricing.MinPriceDifference != 50 {
			t.Errorf("Pricing.MinPriceDifference = %v, want 50", cfg.Pricing.MinPriceDifference)
		}
		if cfg.Currency.Reporting != "GBP" {
			t.Errorf("Currency.Reporting = %s, want GBP", cfg.Currency.Reporting)
		}
		if rate, ok := lookupRate(cfg.Currency.Rates, "usd"); !ok || rate != 0.79 {
			t.Errorf("Currency.Rates[USD] = %v, %v; want 0.79", rate, ok)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
		if len(cfg.Feed.AllowedHosts) != 0 {
			t.Errorf("Feed.AllowedHosts = %v, want none", cfg.Feed.AllowedHosts)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Setenv("WATCHLENS_SERVER_PORT", "9090")
		t.Setenv("WATCHLENS_SERVER_ENVIRONMENT", "production")
		t.Setenv("WATCHLENS_LOG_LEVEL", "debug")
		t.Setenv("WATCHLENS_CACHE_TTL", "1m")
		t.Setenv("WATCHLENS_MATCHING_THRESHOLD", "0.7")
		t.Setenv("WATCHLENS_PRICING_DISCOUNT", "250")
		t.Setenv("WATCHLENS_STORAGE_PATH", "/tmp/catalog.db")
		t.Setenv("WATCHLENS_RATELIMIT_PER_IP", "200")
		t.Setenv("WATCHLENS_FEED_ALLOWED_HOSTS", "scraper.example,*.exports.example")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
		}
		if cfg.Cache.TTL != time.Minute {
			t.Errorf("Cache.TTL = %v, want 1m", cfg.Cache.TTL)
		}
		if cfg.Matching.Threshold != 0.7 {
			t.Errorf("Matching.Threshold = %v, want 0.7", cfg.Matching.Threshold)
		}
		if cfg.Pricing.Discount != 250 {
			t.Errorf("Pricing.Discount = %v, want 250", cfg.Pricing.Discount)
		}
		if cfg.Storage.Path != "/tmp/catalog.db" {
			t.Errorf("Storage.Path = %s, want /tmp/catalog.db", cfg.Storage.Path)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if len(cfg.Feed.AllowedHosts) != 2 || cfg.Feed.AllowedHosts[1] != "*.exports.example" {
			t.Errorf("Feed.AllowedHosts = %v, want both configured hosts", cfg.Feed.AllowedHosts)
		}
	})

	t.Run("rejects invalid environment values", func(t *testing.T) {
		t.Setenv("WATCHLENS_MATCHING_WEIGHTS_TITLE", "0.5")

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want weights error")
		}
		if !strings.Contains(err.Error(), "sum to 1.0") {
			t.Errorf("Load() error = %v, want weights sum error", err)
		}
	})
}

const vocabularyYAML = `
vocabulary:
  brands:
    - {term: casio, label: Casio}
    - {term: rolex, label: Rolex}
  models:
    - brand: Casio
      models:
        - {term: g-shock, label: G-Shock}
  conditions:
    - {term: mint, label: Mint}
  brand_aliases:
    GS: Grand Seiko
  reference_patterns:
    - '\b(\d{5}-\d{3})\b'
    - '\b(\d{4,6}[a-z]*)\b'
`

func TestLoadVocabulary(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(vocabularyYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	vocab := cfg.Vocabulary.Apply(usecase.DefaultVocabulary())
	if len(vocab.Brands) != 2 || vocab.Brands[0].Label != "Casio" {
		t.Errorf("Brands = %+v, want configured list in order", vocab.Brands)
	}
	if len(vocab.Conditions) != 1 {
		t.Errorf("Conditions = %+v, want configured list only", vocab.Conditions)
	}
	if len(vocab.DialColors) != len(usecase.DefaultVocabulary().DialColors) {
		t.Errorf("DialColors were replaced, want built-in list kept")
	}
	if vocab.BrandAliases["gs"] != "Grand Seiko" || vocab.BrandAliases["ap"] != "Audemars Piguet" {
		t.Errorf("BrandAliases = %v, want configured alias merged into built-in table", vocab.BrandAliases)
	}
	if len(vocab.Models["Rolex"]) == 0 {
		t.Errorf("Models[Rolex] dropped, want built-in models kept")
	}

	extractor, err := usecase.NewExtractor(vocab)
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}
	attrs := extractor.Extract("Casio G-Shock 12345-678 mint", "")
	if attrs.Brand != "Casio" {
		t.Errorf("Brand = %q, want Casio", attrs.Brand)
	}
	if attrs.Model != "G-Shock" {
		t.Errorf("Model = %q, want G-Shock", attrs.Model)
	}
	if attrs.Reference != "12345-678" {
		t.Errorf("Reference = %q, want configured pattern to win", attrs.Reference)
	}
	if attrs.Condition != "Mint" {
		t.Errorf("Condition = %q, want Mint", attrs.Condition)
	}
}

func TestVocabularyApplyKeepsBase(t *testing.T) {
	base := usecase.DefaultVocabulary()
	brands := len(base.Brands)

	_ = VocabularyConfig{
		BrandAliases: map[string]string{"gs": "Grand Seiko"},
		Models:       []ModelsConfig{{Brand: "Rolex", Models: []usecase.Keyword{{Term: "daytona", Label: "Daytona"}}}},
	}.Apply(base)

	if _, ok := base.BrandAliases["gs"]; ok {
		t.Error("Apply() modified base brand aliases")
	}
	if len(base.Models["Rolex"]) == 1 {
		t.Error("Apply() modified base models")
	}
	if len(base.Brands) != brands {
		t.Error("Apply() modified base brands")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Log:     LogConfig{Level: "info"},
			Feed:    FeedConfig{RequestsPerSecond: 1},
			Storage: StorageConfig{Path: "catalog.db"},
			Matching: MatchingConfig{
				Threshold: 0.8,
				Weights:   WeightsConfig{Brand: 0.4, Reference: 0.3, Model: 0.2, Title: 0.1},
			},
			Pricing: PricingConfig{
				Discount:           100,
				MinPriceDifference: 50,
				MaxPriceIncrease:   0.2,
				MaxPriceDecrease:   0.3,
			},
			Currency: CurrencyConfig{Reporting: "GBP", Rates: map[string]float64{"gbp": 1, "usd": 0.79}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid configuration",
			mutate: func(c *Config) {},
		},
		{
			name:   "zero threshold is allowed",
			mutate: func(c *Config) { c.Matching.Threshold = 0 },
		},
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.Matching.Threshold = 1.5 },
			wantErr: "threshold",
		},
		{
			name:    "negative threshold",
			mutate:  func(c *Config) { c.Matching.Threshold = -0.1 },
			wantErr: "threshold",
		},
		{
			name:    "negative weight",
			mutate:  func(c *Config) { c.Matching.Weights = WeightsConfig{Brand: 1.1, Title: -0.1} },
			wantErr: "non-negative",
		},
		{
			name:    "weights not summing to one",
			mutate:  func(c *Config) { c.Matching.Weights.Title = 0.2 },
			wantErr: "sum to 1.0",
		},
		{
			name:    "negative discount",
			mutate:  func(c *Config) { c.Pricing.Discount = -1 },
			wantErr: "discount",
		},
		{
			name:    "negative floor",
			mutate:  func(c *Config) { c.Pricing.MinPriceFloor = -1 },
			wantErr: "min_price_floor",
		},
		{
			name:    "decrease above one",
			mutate:  func(c *Config) { c.Pricing.MaxPriceDecrease = 1.5 },
			wantErr: "repricing",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: "log level",
		},
		{
			name:    "missing storage path",
			mutate:  func(c *Config) { c.Storage.Path = "" },
			wantErr: "storage path",
		},
		{
			name:    "non-positive exchange rate",
			mutate:  func(c *Config) { c.Currency.Rates["chf"] = 0 },
			wantErr: "exchange rate",
		},
		{
			name: "vocabulary keyword without label",
			mutate: func(c *Config) {
				c.Vocabulary.Conditions = []usecase.Keyword{{Term: "mint"}}
			},
			wantErr: "term and label",
		},
		{
			name:    "vocabulary models without brand",
			mutate:  func(c *Config) { c.Vocabulary.Models = []ModelsConfig{{}} },
			wantErr: "without brand",
		},
		{
			name:    "reference pattern does not compile",
			mutate:  func(c *Config) { c.Vocabulary.ReferencePatterns = []string{`(\d{4}`} },
			wantErr: "vocabulary",
		},
		{
			name:    "reporting currency not at parity",
			mutate:  func(c *Config) { c.Currency.Rates["gbp"] = 1.2 },
			wantErr: "rate 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := validate(&cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
