package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/watchlens/backend/internal/usecase"
)

// weightTolerance absorbs float error when checking that weights sum to 1
const weightTolerance = 1e-9

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Cache      CacheConfig
	Feed       FeedConfig
	Storage    StorageConfig
	Matching   MatchingConfig
	Pricing    PricingConfig
	Currency   CurrencyConfig
	Vocabulary VocabularyConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// FeedConfig holds scraper export client configuration
type FeedConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	UserAgent         string        `mapstructure:"user_agent"`
	Concurrency       int           `mapstructure:"concurrency"`
	AllowedHosts      []string      `mapstructure:"allowed_hosts"`
}

// StorageConfig holds catalog store configuration
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// WeightsConfig holds the similarity field weights
type WeightsConfig struct {
	Brand     float64 `mapstructure:"brand"`
	Reference float64 `mapstructure:"reference"`
	Model     float64 `mapstructure:"model"`
	Title     float64 `mapstructure:"title"`
}

// MatchingConfig holds matcher configuration
type MatchingConfig struct {
	Threshold float64       `mapstructure:"threshold"`
	Weights   WeightsConfig `mapstructure:"weights"`
	Workers   int           `mapstructure:"workers"`
	Debug     bool          `mapstructure:"debug"`
}

// PricingConfig holds price recommendation and repricing configuration
type PricingConfig struct {
	Discount           float64 `mapstructure:"discount"`
	MinPriceFloor      float64 `mapstructure:"min_price_floor"`
	MinPriceDifference float64 `mapstructure:"min_price_difference"`
	MaxPriceIncrease   float64 `mapstructure:"max_price_increase"`
	MaxPriceDecrease   float64 `mapstructure:"max_price_decrease"`
}

// CurrencyConfig holds the reporting currency and conversion rates into it
type CurrencyConfig struct {
	Reporting string             `mapstructure:"reporting"`
	Rates     map[string]float64 `mapstructure:"rates"`
}

// VocabularyConfig overrides the built-in extraction vocabulary. A non-empty
// list replaces the built-in list of the same kind, keeping the configured
// order; brand aliases are merged into the built-in table.
type VocabularyConfig struct {
	Brands            []usecase.Keyword `mapstructure:"brands"`
	Models            []ModelsConfig    `mapstructure:"models"`
	Conditions        []usecase.Keyword `mapstructure:"conditions"`
	DialColors        []usecase.Keyword `mapstructure:"dial_colors"`
	Materials         []usecase.Keyword `mapstructure:"materials"`
	Movements         []usecase.Keyword `mapstructure:"movements"`
	BrandAliases      map[string]string `mapstructure:"brand_aliases"`
	ReferencePatterns []string          `mapstructure:"reference_patterns"`
}

// ModelsConfig replaces the model keywords of one brand
type ModelsConfig struct {
	Brand  string            `mapstructure:"brand"`
	Models []usecase.Keyword `mapstructure:"models"`
}

// Apply returns base with the configured overrides. base is not modified.
func (c VocabularyConfig) Apply(base usecase.Vocabulary) usecase.Vocabulary {
	vocab := base

	vocab.Brands = replaceKeywords(base.Brands, c.Brands)
	vocab.Conditions = replaceKeywords(base.Conditions, c.Conditions)
	vocab.DialColors = replaceKeywords(base.DialColors, c.DialColors)
	vocab.Materials = replaceKeywords(base.Materials, c.Materials)
	vocab.Movements = replaceKeywords(base.Movements, c.Movements)
	if len(c.ReferencePatterns) > 0 {
		vocab.ReferencePatterns = c.ReferencePatterns
	}

	vocab.BrandAliases = make(map[string]string, len(base.BrandAliases)+len(c.BrandAliases))
	for alias, brand := range base.BrandAliases {
		vocab.BrandAliases[alias] = brand
	}
	for alias, brand := range c.BrandAliases {
		vocab.BrandAliases[strings.ToLower(alias)] = brand
	}

	vocab.Models = make(map[string][]usecase.Keyword, len(base.Models)+len(c.Models))
	for brand, models := range base.Models {
		vocab.Models[brand] = models
	}
	for _, m := range c.Models {
		vocab.Models[m.Brand] = m.Models
	}

	return vocab
}

func replaceKeywords(base, override []usecase.Keyword) []usecase.Keyword {
	if len(override) > 0 {
		return override
	}
	return base
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/watchlens/")

	// WATCHLENS_MATCHING_THRESHOLD overrides matching.threshold
	v.SetEnvPrefix("WATCHLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("log.level", "info")

	// Catalog snapshot refresh, as the dashboard did
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.cleanup_interval", "10m")

	// Feed defaults
	v.SetDefault("feed.timeout", "30s")
	v.SetDefault("feed.requests_per_second", 2.0)
	v.SetDefault("feed.burst", 5)
	v.SetDefault("feed.user_agent", "WatchLens/1.0")
	v.SetDefault("feed.concurrency", 4)
	v.SetDefault("feed.allowed_hosts", []string{})

	v.SetDefault("storage.path", "watchlens.db")

	// Matching defaults
	v.SetDefault("matching.threshold", 0.8)
	v.SetDefault("matching.weights.brand", 0.4)
	v.SetDefault("matching.weights.reference", 0.3)
	v.SetDefault("matching.weights.model", 0.2)
	v.SetDefault("matching.weights.title", 0.1)
	v.SetDefault("matching.workers", 0)
	v.SetDefault("matching.debug", false)

	// Pricing defaults
	v.SetDefault("pricing.discount", 100.0)
	v.SetDefault("pricing.min_price_floor", 0.0)
	v.SetDefault("pricing.min_price_difference", 50.0)
	v.SetDefault("pricing.max_price_increase", 0.2)
	v.SetDefault("pricing.max_price_decrease", 0.3)

	// Currency defaults
	v.SetDefault("currency.reporting", "GBP")
	v.SetDefault("currency.rates", map[string]float64{
		"GBP": 1,
		"USD": 0.79,
		"EUR": 0.85,
	})

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if _, err := zerolog.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("unknown log level %q", config.Log.Level)
	}

	if config.Storage.Path == "" {
		return fmt.Errorf("storage path is required (set WATCHLENS_STORAGE_PATH)")
	}

	if config.Feed.RequestsPerSecond <= 0 {
		return fmt.Errorf("feed requests_per_second must be positive, got %v", config.Feed.RequestsPerSecond)
	}

	m := config.Matching
	if m.Threshold < 0 || m.Threshold > 1 || math.IsNaN(m.Threshold) {
		return fmt.Errorf("matching threshold must be within [0,1], got %v", m.Threshold)
	}
	w := m.Weights
	for name, value := range map[string]float64{
		"brand":     w.Brand,
		"reference": w.Reference,
		"model":     w.Model,
		"title":     w.Title,
	} {
		if value < 0 {
			return fmt.Errorf("matching weight %s must be non-negative, got %v", name, value)
		}
	}
	if sum := w.Brand + w.Reference + w.Model + w.Title; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("matching weights must sum to 1.0, got %v", sum)
	}

	p := config.Pricing
	if p.Discount < 0 {
		return fmt.Errorf("pricing discount must be non-negative, got %v", p.Discount)
	}
	if p.MinPriceFloor < 0 {
		return fmt.Errorf("pricing min_price_floor must be non-negative, got %v", p.MinPriceFloor)
	}
	if p.MinPriceDifference < 0 || p.MaxPriceIncrease < 0 || p.MaxPriceDecrease < 0 || p.MaxPriceDecrease > 1 {
		return fmt.Errorf("pricing repricing bounds are out of range")
	}

	if err := validateVocabulary(config.Vocabulary); err != nil {
		return err
	}

	if config.Currency.Reporting == "" {
		return fmt.Errorf("reporting currency is required")
	}
	for code, rate := range config.Currency.Rates {
		if rate <= 0 {
			return fmt.Errorf("exchange rate for %s must be positive, got %v", strings.ToUpper(code), rate)
		}
	}
	if rate, ok := lookupRate(config.Currency.Rates, config.Currency.Reporting); ok && rate != 1 {
		return fmt.Errorf("reporting currency %s must have rate 1, got %v", config.Currency.Reporting, rate)
	}

	return nil
}

// validateVocabulary rejects empty keywords and reference patterns that do
// not compile
func validateVocabulary(c VocabularyConfig) error {
	lists := map[string][]usecase.Keyword{
		"brands":      c.Brands,
		"conditions":  c.Conditions,
		"dial_colors": c.DialColors,
		"materials":   c.Materials,
		"movements":   c.Movements,
	}
	for _, m := range c.Models {
		if strings.TrimSpace(m.Brand) == "" {
			return fmt.Errorf("vocabulary models entry without brand")
		}
		lists["models of "+m.Brand] = m.Models
	}
	for name, keywords := range lists {
		for i, kw := range keywords {
			if strings.TrimSpace(kw.Term) == "" || strings.TrimSpace(kw.Label) == "" {
				return fmt.Errorf("vocabulary %s entry %d needs both term and label", name, i)
			}
		}
	}

	if _, err := usecase.NewExtractor(c.Apply(usecase.DefaultVocabulary())); err != nil {
		return fmt.Errorf("vocabulary: %w", err)
	}
	return nil
}

// lookupRate finds code in rates ignoring case; viper lower-cases map keys
func lookupRate(rates map[string]float64, code string) (float64, bool) {
	for k, v := range rates {
		if strings.EqualFold(k, code) {
			return v, true
		}
	}
	return 0, false
}
